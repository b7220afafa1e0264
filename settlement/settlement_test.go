// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/ledger"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/snapshot"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

const treasury = types.AccountID("treasury")

type harness struct {
	t         *testing.T
	ledger    *ledger.Service
	snapshots *snapshot.Service
	settle    *Service
	tokens    *storage.Counter

	paid     map[types.AccountID]*big.Int
	payments map[types.AccountID]int
	failures map[types.AccountID]int
	phases   []Phase
}

func newHarness(t *testing.T) *harness {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sctx := storage.NewContext(store)
	snaps := snapshot.New(sctx)
	return &harness{
		t:         t,
		ledger:    ledger.New(sctx),
		snapshots: snaps,
		settle:    New(sctx, snaps),
		tokens:    storage.NewCounter(sctx, storage.NewSlot("test-tokens")),
		paid:      make(map[types.AccountID]*big.Int),
		payments:  make(map[types.AccountID]int),
		failures:  make(map[types.AccountID]int),
	}
}

func protocol() *settings.Protocol {
	p := settings.DefaultProtocol()
	p.MinimumValidatorDeposit = big.NewInt(100)
	p.MinimumDelegatorDeposit = big.NewInt(10)
	return p
}

func (h *harness) validator(id types.AccountID, amount int64) *harness {
	_, err := h.ledger.RegisterValidator(0, protocol(), id, "0x"+string(id), big.NewInt(amount), true)
	require.NoError(h.t, err)
	return h
}

func (h *harness) delegator(id, validator types.AccountID, amount int64) *harness {
	_, err := h.ledger.RegisterDelegator(0, protocol(), id, validator, big.NewInt(amount))
	require.NoError(h.t, err)
	return h
}

func (h *harness) snapshot(era types.Era) *harness {
	_, err := h.snapshots.Create(era, 0, h.ledger)
	require.NoError(h.t, err)
	require.NoError(h.t, h.settle.Init(era))
	return h
}

func (h *harness) conclude(era types.Era, reward int64, commissionBps uint64, excluded ...types.AccountID) *harness {
	_, err := h.settle.Conclude(era, big.NewInt(reward), excluded, commissionBps, treasury)
	require.NoError(h.t, err)
	return h
}

// confirm completes the dispatched transfers, failing those of recipients with failures left.
func (h *harness) confirm(ds []*Dispatch) {
	for _, d := range ds {
		var transferErr error
		if h.failures[d.Recipient] > 0 {
			h.failures[d.Recipient]--
			transferErr = errors.New("transfer rejected")
		} else {
			if h.paid[d.Recipient] == nil {
				h.paid[d.Recipient] = new(big.Int)
			}
			h.paid[d.Recipient].Add(h.paid[d.Recipient], d.Amount)
			h.payments[d.Recipient]++
		}
		require.NoError(h.t, h.settle.Confirm(d.Era, d.Key, d.Token, transferErr))
	}
}

// drive resumes the era until completion and returns the number of resumptions.
func (h *harness) drive(era types.Era, budget uint64) int {
	for i := 1; i <= 1000; i++ {
		done, ds, err := h.settle.Resume(era, budget, h.tokens)
		require.NoError(h.t, err)
		st, err := h.settle.Status(era)
		require.NoError(h.t, err)
		h.phases = append(h.phases, st.Phase)
		if done {
			return i
		}
		h.confirm(ds)
	}
	h.t.Fatal("settlement did not complete")
	return 0
}

func (h *harness) amount(id types.AccountID) string {
	if v := h.paid[id]; v != nil {
		return v.String()
	}
	return "0"
}

func (h *harness) totalPaid() *big.Int {
	total := new(big.Int)
	for _, v := range h.paid {
		total.Add(total, v)
	}
	return total
}

func TestSoleValidatorReceivesWholeReward(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).snapshot(0).conclude(0, 1_000_000, 2_000)

	h.drive(0, 10)
	assert.Equal(t, "1000000", h.amount("alice"))
	assert.Equal(t, "0", h.amount(treasury))

	st, err := h.settle.Status(0)
	require.NoError(t, err)
	assert.Equal(t, Completed, st.Phase)
	assert.Equal(t, big.NewInt(1_000_000), st.Distributed)

	rewards, err := h.settle.ValidatorRewards("alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.True(t, rewards[0].Paid)
	assert.Equal(t, big.NewInt(1_000_000), rewards[0].Amount)

	active, err := h.settle.ActiveEras()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDistributionWithCommissionAndExclusion(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).validator("bob", 300).validator("carol", 100).
		delegator("d1", "alice", 30).delegator("d2", "alice", 70).delegator("d3", "carol", 50).
		snapshot(0).conclude(0, 1001, 1_000, "carol", "unknown")

	h.drive(0, 1)

	// eligible stake 500: alice 200, bob 300
	// alice share 400, delegators part 200, commission 20, pool 180
	assert.Equal(t, "220", h.amount("alice"))
	assert.Equal(t, "600", h.amount("bob"))
	assert.Equal(t, "54", h.amount("d1"))
	assert.Equal(t, "126", h.amount("d2"))
	assert.Equal(t, "0", h.amount("carol"))
	assert.Equal(t, "0", h.amount("d3"))
	assert.Equal(t, "1", h.amount(treasury))
	assert.Equal(t, "1001", h.totalPaid().String())

	st, err := h.settle.Status(0)
	require.NoError(t, err)
	assert.Equal(t, []types.AccountID{"carol"}, st.Excluded)
	assert.Equal(t, big.NewInt(500), st.EligibleStake)

	remainder, err := h.settle.Remainder(0)
	require.NoError(t, err)
	require.NotNil(t, remainder)
	assert.Equal(t, big.NewInt(1), remainder.Amount)

	d1, err := h.settle.DelegatorRewards("d1", 0, 3)
	require.NoError(t, err)
	require.Len(t, d1, 1)
	assert.Equal(t, types.AccountID("alice"), d1[0].ValidatorID)
}

func TestPhasesAreMonotone(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).validator("bob", 100).delegator("d1", "alice", 10).
		snapshot(0).conclude(0, 999, 500)

	steps := h.drive(0, 1)
	assert.Greater(t, steps, 4)
	for i := 1; i < len(h.phases); i++ {
		assert.GreaterOrEqual(t, h.phases[i], h.phases[i-1])
	}

	// completion is a no-op on repeat
	before, err := h.settle.Status(0)
	require.NoError(t, err)
	for range 3 {
		done, ds, err := h.settle.Resume(0, 1, h.tokens)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Empty(t, ds)
	}
	after, err := h.settle.Status(0)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "999", h.totalPaid().String())
}

func TestFailedPayoutIsRetriedNotRepaid(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).validator("bob", 100).delegator("d1", "bob", 100).
		snapshot(0).conclude(0, 1000, 0)
	h.failures["bob"] = 2
	h.failures["d1"] = 1

	h.drive(0, 10)

	assert.Equal(t, 1, h.payments["alice"])
	assert.Equal(t, 1, h.payments["bob"])
	assert.Equal(t, 1, h.payments["d1"])
	// alice 1000*100/300, bob share 666 split evenly without commission
	assert.Equal(t, "333", h.amount("alice"))
	assert.Equal(t, "333", h.amount("bob"))
	assert.Equal(t, "333", h.amount("d1"))
	assert.Equal(t, "1", h.amount(treasury))
}

func TestFailedPayoutBlocksPhase(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).delegator("d1", "alice", 100).snapshot(0).conclude(0, 100, 0)
	h.failures["alice"] = 1

	done, ds, err := h.settle.Resume(0, 10, h.tokens)
	require.NoError(t, err)
	assert.False(t, done)
	require.Len(t, ds, 1)
	h.confirm(ds)

	st, err := h.settle.Status(0)
	require.NoError(t, err)
	assert.Equal(t, DistributingValidatorRewards, st.Phase)
	assert.Equal(t, uint64(0), st.ValidatorCursor)

	done, ds, err = h.settle.Resume(0, 10, h.tokens)
	require.NoError(t, err)
	assert.False(t, done)
	require.Len(t, ds, 1)
	assert.Equal(t, types.AccountID("alice"), ds[0].Recipient)
}

func TestConcurrentResumeRejected(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).snapshot(0).conclude(0, 100, 0)

	_, ds, err := h.settle.Resume(0, 10, h.tokens)
	require.NoError(t, err)
	require.Len(t, ds, 1)

	_, _, err = h.settle.Resume(0, 10, h.tokens)
	assert.ErrorIs(t, err, reverts.ErrSettlementInProgress)

	assert.ErrorIs(t, h.settle.Confirm(0, ds[0].Key, ds[0].Token+1, nil), reverts.ErrUnknownContinuation)
	h.confirm(ds)
	assert.ErrorIs(t, h.settle.Confirm(0, ds[0].Key, ds[0].Token, nil), reverts.ErrUnknownContinuation)
}

func TestErasAreIndependent(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).snapshot(0).conclude(0, 100, 0)
	h.snapshot(1).conclude(1, 50, 0)

	_, ds0, err := h.settle.Resume(0, 10, h.tokens)
	require.NoError(t, err)
	require.Len(t, ds0, 1)

	// era 0 in flight does not block era 1
	h.drive(1, 10)
	assert.Equal(t, "50", h.amount("alice"))

	active, err := h.settle.ActiveEras()
	require.NoError(t, err)
	assert.Equal(t, []types.Era{0}, active)

	h.confirm(ds0)
	h.drive(0, 10)
	assert.Equal(t, "150", h.amount("alice"))
}

func TestConcludeErrors(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100)

	_, err := h.settle.Conclude(0, big.NewInt(1), nil, 0, treasury)
	assert.ErrorIs(t, err, reverts.ErrUnknownEra)

	h.snapshot(0)
	_, _, err = h.settle.Resume(0, 1, h.tokens)
	assert.ErrorIs(t, err, reverts.ErrRewardNotConcluded)
	_, err = h.settle.Conclude(0, big.NewInt(-1), nil, 0, treasury)
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)

	h.conclude(0, 10, 0)
	_, err = h.settle.Conclude(0, big.NewInt(1), nil, 0, treasury)
	assert.ErrorIs(t, err, reverts.ErrRewardAlreadyConcluded)

	assert.ErrorIs(t, h.settle.Init(0), reverts.ErrEraAlreadySnapshotted)
}

func TestAllExcludedGoesToTreasury(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).snapshot(0).conclude(0, 500, 0, "alice")

	h.drive(0, 1)
	assert.Equal(t, "0", h.amount("alice"))
	assert.Equal(t, "500", h.amount(treasury))
}

func TestZeroReward(t *testing.T) {
	h := newHarness(t)
	h.validator("alice", 100).snapshot(0).conclude(0, 0, 0)

	steps := h.drive(0, 5)
	assert.Equal(t, 1, steps)
	assert.Empty(t, h.paid)
}

func TestSplitShare(t *testing.T) {
	vs := &snapshot.ValidatorStake{
		Stake:      big.NewInt(100),
		TotalStake: big.NewInt(400),
		Delegators: []snapshot.DelegatorStake{{ID: "d1", Stake: big.NewInt(300)}},
	}
	cut, pool := splitShare(big.NewInt(1000), vs, 2_000)
	// delegators part 750, commission 150
	assert.Equal(t, big.NewInt(400), cut)
	assert.Equal(t, big.NewInt(600), pool)
	assert.Equal(t, big.NewInt(600), delegatorReward(pool, vs, vs.Delegators[0]))

	cut, pool = splitShare(big.NewInt(1000), vs, settings.MaxBps)
	assert.Equal(t, big.NewInt(1000), cut)
	assert.Equal(t, 0, pool.Sign())
}
