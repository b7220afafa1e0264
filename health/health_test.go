// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/anchor"
)

type stubSource []*anchor.PendingTransfer

func (s stubSource) PendingTransfers() ([]*anchor.PendingTransfer, error) { return s, nil }

func TestStatus(t *testing.T) {
	now := time.Unix(10_000, 0)
	clock := func() time.Time { return now }

	h := New(stubSource(nil), clock)
	st, err := h.Status(time.Minute)
	require.NoError(t, err)
	assert.True(t, st.Healthy)
	assert.Zero(t, st.Transfers.Pending)
	assert.Nil(t, st.LastProcessed)

	h = New(stubSource{
		{Token: 1, Kind: anchor.Payout, Amount: big.NewInt(1), CreatedAt: 9_990},
		{Token: 2, Kind: anchor.Withdrawal, Amount: big.NewInt(1), CreatedAt: 9_900},
	}, clock)
	h.Processed()

	st, err = h.Status(time.Minute)
	require.NoError(t, err)
	assert.False(t, st.Healthy)
	assert.Equal(t, 2, st.Transfers.Pending)
	assert.Equal(t, uint64(2), *st.Transfers.OldestToken)
	assert.Equal(t, uint64(100), *st.Transfers.OldestAgeSeconds)
	require.NotNil(t, st.LastProcessed)
	assert.Equal(t, now, *st.LastProcessed)

	st, err = h.Status(5 * time.Minute)
	require.NoError(t, err)
	assert.True(t, st.Healthy)
}
