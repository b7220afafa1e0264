// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/ledger"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

func setup(t *testing.T) (*Service, *ledger.Service) {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sctx := storage.NewContext(store)
	return New(sctx), ledger.New(sctx)
}

func testProtocol() *settings.Protocol {
	p := settings.DefaultProtocol()
	p.MinimumValidatorDeposit = big.NewInt(100)
	p.MinimumDelegatorDeposit = big.NewInt(10)
	return p
}

func TestCreate(t *testing.T) {
	s, l := setup(t)
	p := testProtocol()

	_, err := l.RegisterValidator(1, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = l.RegisterValidator(1, p, "bob", "0xb", big.NewInt(300), true)
	require.NoError(t, err)
	_, err = l.RegisterDelegator(1, p, "dan", "alice", big.NewInt(50))
	require.NoError(t, err)

	_, ok, err := s.Latest()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Create(1, 10, l)
	assert.ErrorIs(t, err, reverts.ErrUnexpectedEra)

	h, err := s.Create(0, 10, l)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(450), h.TotalStake)
	assert.Equal(t, uint64(2), h.ValidatorCount)

	_, err = s.Create(0, 11, l)
	assert.ErrorIs(t, err, reverts.ErrEraAlreadySnapshotted)

	latest, ok, err := s.Latest()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.Era(0), latest)

	alice, err := s.Validator(0, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, big.NewInt(100), alice.Stake)
	assert.Equal(t, big.NewInt(150), alice.TotalStake)
	assert.Equal(t, big.NewInt(50), alice.Delegated())
	assert.Equal(t, []DelegatorStake{{ID: "dan", Stake: big.NewInt(50)}}, alice.Delegators)

	missing, err := s.Validator(0, "carol")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bob, err := s.ValidatorByAppchainID(0, "0xb")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, types.AccountID("bob"), bob.ID)

	missing, err = s.ValidatorByAppchainID(0, "0xc")
	require.NoError(t, err)
	assert.Nil(t, missing)
	missing, err = s.ValidatorByAppchainID(1, "0xb")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSnapshotIsImmutable(t *testing.T) {
	s, l := setup(t)
	p := testProtocol()

	_, err := l.RegisterValidator(1, p, "alice", "0xa", big.NewInt(100), true)
	require.NoError(t, err)
	_, err = s.Create(0, 10, l)
	require.NoError(t, err)

	// live changes only affect the next era
	_, err = l.IncreaseStake(2, "alice", big.NewInt(900))
	require.NoError(t, err)
	_, err = l.RegisterValidator(2, p, "bob", "0xb", big.NewInt(100), true)
	require.NoError(t, err)

	info, err := s.Info(0)
	require.NoError(t, err)
	require.Len(t, info.Validators, 1)
	assert.Equal(t, big.NewInt(100), info.Validators[0].TotalStake)
	assert.Equal(t, big.NewInt(100), info.TotalStake)

	h, err := s.Create(1, 20, l)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1100), h.TotalStake)

	info, err = s.Info(5)
	require.NoError(t, err)
	assert.Nil(t, info)
}
