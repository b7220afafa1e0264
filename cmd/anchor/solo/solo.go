// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solo simulates the appchain and its relay for development: it boots the
// appchain as soon as the booting conditions hold and emits an era switch, followed by
// the reward conclusion of the previous era, on every tick.
package solo

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/lifecycle"
	"github.com/vechain/anchor/log"
	"github.com/vechain/anchor/relay"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/types"
)

var logger = log.WithContext("pkg", "solo")

const (
	Owner   = types.AccountID("solo-owner")
	Relayer = types.AccountID("solo-relayer")
)

// Anchor is the subset of the anchor driven by solo.
type Anchor interface {
	Status() (*anchor.Status, error)
	GoBooting(ctx context.Context, caller types.AccountID) error
	GoLive(ctx context.Context, caller types.AccountID) error
	ApplyMessage(ctx context.Context, caller types.AccountID, msg *relay.Message) error
}

// Genesis returns settings suited to a single developer validator.
func Genesis() *settings.Genesis {
	g := settings.DefaultGenesis(Owner)
	g.Protocol.MinimumValidatorCount = 1
	g.Protocol.MinimumTotalStakePriceForBooting = new(big.Int)
	g.Protocol.UnlockPeriodOfValidatorDeposit = 0
	g.Protocol.UnlockPeriodOfDelegatorDeposit = 0
	g.Appchain = &settings.Appchain{
		ChainSpec:    "solo",
		RawChainSpec: "solo-raw",
		BootNodes:    "[]",
		RPCEndpoint:  "ws://localhost:9944",
		EraReward:    new(big.Int).Mul(big.NewInt(1_000), big.NewInt(1e18)),
	}
	g.Anchor.Relayer = Relayer
	g.Price = &settings.Price{DepositTokenPrice: big.NewInt(1_000_000), Decimals: settings.PriceDecimals}
	return g
}

// Solo advances the appchain.
type Solo struct {
	anchor Anchor
}

func New(a Anchor) *Solo {
	return &Solo{anchor: a}
}

// Tick moves the appchain one step forward.
func (s *Solo) Tick(ctx context.Context) error {
	st, err := s.anchor.Status()
	if err != nil {
		return err
	}
	switch st.State {
	case lifecycle.Staging:
		err := s.anchor.GoBooting(ctx, Owner)
		var cerr *lifecycle.ConditionsError
		if errors.As(err, &cerr) {
			logger.Debug("waiting for booting conditions", "missing", len(cerr.Missing))
			return nil
		}
		if err != nil {
			return err
		}
		fallthrough
	case lifecycle.Booting:
		if err := s.anchor.GoLive(ctx, Owner); err != nil {
			return err
		}
	case lifecycle.Active:
	default:
		return nil
	}
	return s.nextEra(ctx, st)
}

func (s *Solo) nextEra(ctx context.Context, st *anchor.Status) error {
	next := types.Era(0)
	if st.LatestEra != nil {
		next = *st.LatestEra + 1
	}
	nonce := st.LastNonce

	nonce++
	if err := s.anchor.ApplyMessage(ctx, Relayer, &relay.Message{
		Nonce: nonce,
		Event: relay.Event{Kind: relay.EraSwitchPlanned, Era: next},
	}); err != nil {
		return errors.Wrapf(err, "switch to era %d", next)
	}
	logger.Info("era switched", "era", next)

	if next == 0 {
		return nil
	}
	nonce++
	err := s.anchor.ApplyMessage(ctx, Relayer, &relay.Message{
		Nonce: nonce,
		Event: relay.Event{Kind: relay.EraRewardConcluded, Era: next - 1},
	})
	if reverts.IsRevertErr(err) {
		logger.Warn("reward not concluded", "era", next-1, "err", err)
		return nil
	}
	return err
}
