// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/relay"
	"github.com/vechain/anchor/token"
	"github.com/vechain/anchor/types"
)

func TestRunAppliesAsyncOutcomes(t *testing.T) {
	f := newFixture(t)
	deposits := token.NewPooled(f.deposits, 4, 64)
	rewards := token.NewPooled(f.rewards, 4, 64)
	t.Cleanup(deposits.Stop)
	t.Cleanup(rewards.Stop)
	f.anchor = f.open(deposits, rewards)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.anchor.Run(ctx) }()

	var ids []types.AccountID
	for i := range 6 {
		id := types.AccountID(fmt.Sprintf("v%d", i))
		ids = append(ids, id)
		f.register(id, fmt.Sprintf("app-%d", i), 200, true)
	}
	f.activate()

	require.NoError(t, f.send(relay.Event{Kind: relay.EraSwitchPlanned, Era: 0}))
	require.NoError(t, f.send(relay.Event{Kind: relay.EraRewardConcluded, Era: 0, Reward: big.NewInt(600)}))

	for _, id := range ids {
		require.NoError(t, f.anchor.DecreaseStake(f.ctx, id, big.NewInt(100)))
	}
	f.advance(21 * 24 * time.Hour)
	for _, id := range ids {
		_, err := f.anchor.WithdrawStake(f.ctx, id)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		done, err := f.anchor.ResumeSettlement(f.ctx, relayerID, 0)
		return err == nil && done
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		pending, err := f.anchor.PendingTransfers()
		return err == nil && len(pending) == 0
	}, 5*time.Second, 10*time.Millisecond)

	for _, id := range ids {
		assert.Equal(t, big.NewInt(100), f.deposits.Balance(id), id)
		assert.Equal(t, big.NewInt(100), f.rewards.Balance(id), id)
	}

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
