// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settings

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

func newService(t *testing.T) (*Service, *storage.Context) {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sctx := storage.NewContext(store)
	return New(sctx), sctx
}

func TestService_Defaults(t *testing.T) {
	s, _ := newService(t)

	p, err := s.Protocol()
	require.NoError(t, err)
	assert.Equal(t, DefaultProtocol(), p)

	a, err := s.Appchain()
	require.NoError(t, err)
	assert.Nil(t, a.EraReward)

	price, err := s.Price()
	require.NoError(t, err)
	assert.Equal(t, PriceDecimals, price.Decimals)

	ok, err := s.Initialized()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Update(t *testing.T) {
	s, sctx := newService(t)

	require.NoError(t, s.UpdateProtocol(func(p *Protocol) {
		p.MinimumValidatorCount = 2
		p.UnlockPeriodOfDelegatorDeposit = 1
	}))
	require.NoError(t, s.UpdateAppchain(func(a *Appchain) { a.EraReward = big.NewInt(100) }))
	require.NoError(t, s.UpdateAnchor(func(a *Anchor) { a.Owner = "owner" }))
	require.NoError(t, sctx.Commit())

	p, err := s.Protocol()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p.MinimumValidatorCount)
	assert.Equal(t, types.SecondsPerDay, p.UnlockPeriod(types.RoleDelegator))
	assert.Equal(t, 21*types.SecondsPerDay, p.UnlockPeriod(types.RoleValidator))

	a, err := s.Appchain()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), a.EraReward)

	anchor, err := s.Anchor()
	require.NoError(t, err)
	assert.Equal(t, types.AccountID("owner"), anchor.TreasuryAccount())
}

func TestService_InvalidProtocol(t *testing.T) {
	s, _ := newService(t)

	err := s.UpdateProtocol(func(p *Protocol) { p.CommissionBps = MaxBps + 1 })
	assert.ErrorIs(t, err, reverts.ErrInvalidSettings)

	err = s.UpdateProtocol(func(p *Protocol) { p.MaximumValidatorCount = p.MinimumValidatorCount - 1 })
	assert.ErrorIs(t, err, reverts.ErrInvalidSettings)

	p, err := s.Protocol()
	require.NoError(t, err)
	assert.Equal(t, CommissionBps, p.CommissionBps)
}

func TestPrice_StakeValue(t *testing.T) {
	p := &Price{Decimals: 6}
	_, err := p.StakeValue(big.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrTokenPriceNotSet)

	p.DepositTokenPrice = big.NewInt(2_130_000) // 2.13
	v, err := p.StakeValue(big.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2_130), v)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
protocol:
  minimumValidatorDeposit: "5_000"
  minimumValidatorCount: 1
  commissionBps: 1000
appchain:
  chainSpec: spec
  eraReward: "1000000"
anchor:
  owner: root.near
  relayer: relayer.near
price:
  depositTokenPrice: "2130000"
`), 0o600))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_000), g.Protocol.MinimumValidatorDeposit)
	assert.Equal(t, MinimumDelegatorDeposit, g.Protocol.MinimumDelegatorDeposit)
	assert.Equal(t, uint64(1), g.Protocol.MinimumValidatorCount)
	assert.Equal(t, uint64(1000), g.Protocol.CommissionBps)
	assert.Equal(t, "spec", g.Appchain.ChainSpec)
	assert.Equal(t, big.NewInt(1_000_000), g.Appchain.EraReward)
	assert.Equal(t, types.AccountID("root.near"), g.Anchor.Owner)
	assert.Equal(t, types.AccountID("relayer.near"), g.Anchor.Relayer)
	assert.Equal(t, big.NewInt(2_130_000), g.Price.DepositTokenPrice)

	s, sctx := newService(t)
	require.NoError(t, s.Store(g))
	require.NoError(t, sctx.Commit())
	ok, err := s.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("anchor:\n  owner: \"\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("anchor:\n  owner: root\nprotocol:\n  minimumValidatorDeposit: abc\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("anchor:\n  owner: root\nprotocol:\n  maxPayoutsPerStep: 0\n"))
	assert.ErrorIs(t, err, reverts.ErrInvalidSettings)
}
