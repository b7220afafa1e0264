// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

const now = uint64(1_700_000_000)

func testProtocol() *settings.Protocol {
	p := settings.DefaultProtocol()
	p.MinimumValidatorDeposit = big.NewInt(100)
	p.MinimumDelegatorDeposit = big.NewInt(10)
	p.MinimumValidatorCount = 1
	p.MaximumValidatorCount = 3
	p.MaximumDelegatorsPerValidator = 2
	return p
}

func newLedger(t *testing.T) *Service {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(storage.NewContext(store))
}

func assertStatus(t *testing.T, l *Service, total int64, validators, delegators uint64) {
	t.Helper()
	st, err := l.Status()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(total).String(), st.TotalStake.String(), "total stake")
	assert.Equal(t, validators, st.ValidatorCount, "validator count")
	assert.Equal(t, delegators, st.DelegatorCount, "delegator count")

	re, err := l.Recompute()
	require.NoError(t, err)
	assert.Equal(t, st.TotalStake.String(), re.TotalStake.String(), "recomputed total stake")
	assert.Equal(t, st.ValidatorCount, re.ValidatorCount)
	assert.Equal(t, st.DelegatorCount, re.DelegatorCount)
}

func TestRegisterValidator(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(99), true)
	assert.ErrorIs(t, err, reverts.ErrBelowMinimumDeposit)
	_, err = l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(0), true)
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
	_, err = l.RegisterValidator(now, p, "alice", "0xa", new(big.Int).Add(types.MaxAmount, big.NewInt(1)), true)
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
	assertStatus(t, l, 0, 0, 0)

	v, err := l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), v.Deposit)
	assert.Equal(t, now, v.RegisteredAt)

	_, err = l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	assert.ErrorIs(t, err, reverts.ErrAlreadyRegistered)

	_, err = l.RegisterValidator(now, p, "bob", "0xb", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = l.RegisterValidator(now, p, "carol", "0xc", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = l.RegisterValidator(now, p, "dave", "0xd", big.NewInt(100), true)
	assert.ErrorIs(t, err, reverts.ErrTooManyValidators)

	assertStatus(t, l, 300, 3, 0)

	ids, err := l.ValidatorIDs()
	require.NoError(t, err)
	assert.Equal(t, []types.AccountID{"alice", "bob", "carol"}, ids)
}

func TestRegisterDelegator(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.RegisterDelegator(now, p, "dan", "alice", big.NewInt(10))
	assert.ErrorIs(t, err, reverts.ErrUnknownValidator)

	_, err = l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = l.RegisterValidator(now, p, "bob", "0xb", big.NewInt(100), false)
	require.NoError(t, err)

	// below the validator minimum, above the delegator minimum
	d, err := l.RegisterDelegator(now, p, "dan", "alice", big.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), d.Deposit)

	_, err = l.RegisterDelegator(now, p, "dan", "bob", big.NewInt(50))
	assert.ErrorIs(t, err, reverts.ErrValidatorNotDelegatable)
	_, err = l.RegisterDelegator(now, p, "erin", "alice", big.NewInt(9))
	assert.ErrorIs(t, err, reverts.ErrBelowMinimumDelegatorDeposit)
	_, err = l.RegisterDelegator(now, p, "alice", "alice", big.NewInt(50))
	assert.ErrorIs(t, err, reverts.ErrSelfDelegation)
	assertStatus(t, l, 250, 2, 1)

	// repeat delegation increases the entry, even below minimum
	d, err = l.RegisterDelegator(now, p, "dan", "alice", big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(51), d.Deposit)
	assertStatus(t, l, 251, 2, 1)

	_, err = l.RegisterDelegator(now, p, "erin", "alice", big.NewInt(10))
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now, p, "frank", "alice", big.NewInt(10))
	assert.ErrorIs(t, err, reverts.ErrTooManyDelegators)

	v, err := l.Validator("alice")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(61), v.Delegated)
	assert.Equal(t, big.NewInt(161), v.TotalStake())

	delegators, err := l.DelegatorsOf("alice")
	require.NoError(t, err)
	assert.Len(t, delegators, 2)
}

func TestDelegatableFlagOnlyGatesNewDelegations(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now, p, "dan", "alice", big.NewInt(10))
	require.NoError(t, err)
	require.NoError(t, l.SetDelegatable(now, "alice", false))

	_, err = l.RegisterDelegator(now, p, "erin", "alice", big.NewInt(10))
	assert.ErrorIs(t, err, reverts.ErrValidatorNotDelegatable)

	_, err = l.IncreaseDelegation(now, "dan", "alice", big.NewInt(5))
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now, p, "dan", "alice", big.NewInt(5))
	require.NoError(t, err)
	assertStatus(t, l, 120, 1, 1)

	require.NoError(t, l.SetDelegatable(now, "alice", true))
	_, err = l.RegisterDelegator(now, p, "erin", "alice", big.NewInt(10))
	require.NoError(t, err)
}

func TestIncrease(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.IncreaseStake(now, "alice", big.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrUnknownValidator)

	_, err = l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	v, err := l.IncreaseStake(now, "alice", big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(101), v.Deposit)

	_, err = l.IncreaseDelegation(now, "dan", "alice", big.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrUnknownDelegator)
	assertStatus(t, l, 101, 1, 0)
}

func TestDecreaseStake(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(150), true)
	require.NoError(t, err)

	_, err = l.DecreaseStake(now, p, "alice", big.NewInt(151))
	assert.ErrorIs(t, err, reverts.ErrInsufficientStakeToDecrease)
	assertStatus(t, l, 150, 1, 0)

	// without delegators a validator may drop below the minimum
	releases, err := l.DecreaseStake(now, p, "alice", big.NewInt(100))
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, &Release{Owner: "alice", Amount: big.NewInt(100), Role: types.RoleValidator}, releases[0])
	assertStatus(t, l, 50, 1, 0)

	_, err = l.IncreaseStake(now, "alice", big.NewInt(100))
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now, p, "dan", "alice", big.NewInt(10))
	require.NoError(t, err)

	// with delegators the minimum holds
	_, err = l.DecreaseStake(now, p, "alice", big.NewInt(51))
	assert.ErrorIs(t, err, reverts.ErrInsufficientStakeToDecrease)
	_, err = l.DecreaseStake(now, p, "alice", big.NewInt(50))
	require.NoError(t, err)
	assertStatus(t, l, 110, 1, 1)
}

func TestDecreaseStakeToZeroUnbonds(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	releases, err := l.DecreaseStake(now, p, "alice", big.NewInt(100))
	require.NoError(t, err)
	require.Len(t, releases, 1)

	v, err := l.Validator("alice")
	require.NoError(t, err)
	assert.Nil(t, v)
	assertStatus(t, l, 0, 0, 0)
}

func TestDecreaseDelegation(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now, p, "dan", "alice", big.NewInt(30))
	require.NoError(t, err)

	_, err = l.DecreaseDelegation(now, "dan", "alice", big.NewInt(31))
	assert.ErrorIs(t, err, reverts.ErrInsufficientStakeToDecrease)
	_, err = l.DecreaseDelegation(now, "erin", "alice", big.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrUnknownDelegator)

	releases, err := l.DecreaseDelegation(now, "dan", "alice", big.NewInt(25))
	require.NoError(t, err)
	assert.Equal(t, []*Release{{Owner: "dan", Amount: big.NewInt(25), Role: types.RoleDelegator}}, releases)
	assertStatus(t, l, 105, 1, 1)

	releases, err = l.DecreaseDelegation(now, "dan", "alice", big.NewInt(5))
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assertStatus(t, l, 100, 1, 0)

	delegations, err := l.DelegationsOf("dan")
	require.NoError(t, err)
	assert.Empty(t, delegations)
}

func TestUnbondStakeReleasesDelegators(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = l.RegisterValidator(now, p, "bob", "0xb", big.NewInt(200), true)
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now, p, "dan", "alice", big.NewInt(10))
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now, p, "dan", "bob", big.NewInt(20))
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now, p, "erin", "alice", big.NewInt(30))
	require.NoError(t, err)
	assertStatus(t, l, 360, 2, 3)

	releases, err := l.UnbondStake(now, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []*Release{
		{Owner: "dan", Amount: big.NewInt(10), Role: types.RoleDelegator},
		{Owner: "erin", Amount: big.NewInt(30), Role: types.RoleDelegator},
		{Owner: "alice", Amount: big.NewInt(100), Role: types.RoleValidator},
	}, releases)
	assertStatus(t, l, 220, 1, 1)

	delegations, err := l.DelegationsOf("dan")
	require.NoError(t, err)
	require.Len(t, delegations, 1)
	assert.Equal(t, types.AccountID("bob"), delegations[0].ValidatorID)

	_, err = l.UnbondStake(now, "alice")
	assert.ErrorIs(t, err, reverts.ErrUnknownValidator)

	releases, err = l.UnbondDelegation(now, "dan", "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), releases[0].Amount)
	assertStatus(t, l, 200, 1, 0)
}

func TestHistories(t *testing.T) {
	l := newLedger(t)
	p := testProtocol()

	_, err := l.RegisterValidator(now, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = l.RegisterDelegator(now+1, p, "dan", "alice", big.NewInt(10))
	require.NoError(t, err)
	_, err = l.DecreaseDelegation(now+2, "dan", "alice", big.NewInt(4))
	require.NoError(t, err)
	// rejected operations leave no record
	_, err = l.DecreaseDelegation(now+3, "dan", "alice", big.NewInt(400))
	require.Error(t, err)

	n, err := l.HistoryCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	hs, err := l.Histories(0, 10)
	require.NoError(t, err)
	require.Len(t, hs, 3)
	assert.Equal(t, []HistoryKind{ValidatorRegistered, DelegatorRegistered, DelegationDecreased},
		[]HistoryKind{hs[0].Kind, hs[1].Kind, hs[2].Kind})
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{hs[0].Sequence, hs[1].Sequence, hs[2].Sequence})
	assert.Equal(t, types.AccountID("dan"), hs[2].Actor)
	assert.Equal(t, big.NewInt(4), hs[2].Amount)
	assert.Equal(t, now+2, hs[2].Timestamp)
	assert.Equal(t, "DelegationDecreased", hs[2].Kind.String())

	hs, err = l.Histories(2, ^uint64(0))
	require.NoError(t, err)
	assert.Len(t, hs, 1)
}
