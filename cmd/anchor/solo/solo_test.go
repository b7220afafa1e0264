// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/lifecycle"
	"github.com/vechain/anchor/token"
	"github.com/vechain/anchor/types"
)

func newSolo(t *testing.T) (*anchor.Anchor, *Solo) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a, err := anchor.New(db, Genesis(), token.NewMemLedger("deposit"), token.NewMemLedger("reward"))
	require.NoError(t, err)
	return a, New(a)
}

func TestTickWaitsForBootingConditions(t *testing.T) {
	a, s := newSolo(t)

	require.NoError(t, s.Tick(context.Background()))

	st, err := a.Status()
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Staging, st.State)
	assert.Nil(t, st.LatestEra)
	assert.Zero(t, st.LastNonce)
}

func TestTickAdvancesEras(t *testing.T) {
	ctx := context.Background()
	a, s := newSolo(t)

	stake := new(big.Int).Mul(big.NewInt(10_000), big.NewInt(1e18))
	refund, err := a.OnDepositReceived(ctx, "alice", stake, &anchor.DepositMessage{
		Kind:       anchor.RegisterValidator,
		AppchainID: "alice-appchain",
	})
	require.NoError(t, err)
	require.Zero(t, refund.Sign())

	require.NoError(t, s.Tick(ctx))
	st, err := a.Status()
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Active, st.State)
	require.NotNil(t, st.LatestEra)
	assert.Equal(t, types.Era(0), *st.LatestEra)
	assert.Equal(t, uint64(1), st.LastNonce)

	require.NoError(t, s.Tick(ctx))
	st, err = a.Status()
	require.NoError(t, err)
	assert.Equal(t, types.Era(1), *st.LatestEra)
	assert.Equal(t, uint64(3), st.LastNonce)
	assert.Equal(t, []types.Era{0}, st.ActiveSettlements)
}
