// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import (
	"context"
	"math/big"

	"github.com/vechain/anchor/lifecycle"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/types"
)

// GoBooting moves a staging appchain to booting once every booting condition holds.
// A failure lists all unmet conditions.
func (a *Anchor) GoBooting(ctx context.Context, caller types.AccountID) error {
	return a.exec(ctx, "go_booting", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, owner); err != nil {
			return nil, err
		}
		c, err := a.conditions()
		if err != nil {
			return nil, err
		}
		if err := a.lifecycle.GoBooting(c); err != nil {
			return nil, err
		}
		return nil, a.stateChanged(now, lifecycle.Booting)
	})
}

// GoLive moves a booting appchain to active.
func (a *Anchor) GoLive(ctx context.Context, caller types.AccountID) error {
	return a.exec(ctx, "go_live", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, owner); err != nil {
			return nil, err
		}
		if err := a.lifecycle.GoLive(); err != nil {
			return nil, err
		}
		return nil, a.stateChanged(now, lifecycle.Active)
	})
}

// MarkBroken stops the appchain for good. Only withdrawals and settlement of
// concluded eras are accepted afterwards.
func (a *Anchor) MarkBroken(ctx context.Context, caller types.AccountID) error {
	return a.exec(ctx, "mark_broken", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, owner); err != nil {
			return nil, err
		}
		if err := a.lifecycle.MarkBroken(); err != nil {
			return nil, err
		}
		return nil, a.stateChanged(now, lifecycle.Broken)
	})
}

func (a *Anchor) conditions() (*lifecycle.Conditions, error) {
	st, err := a.ledger.Status()
	if err != nil {
		return nil, err
	}
	c := &lifecycle.Conditions{ValidatorCount: st.ValidatorCount, TotalStake: st.TotalStake}
	if c.Protocol, err = a.settings.Protocol(); err != nil {
		return nil, err
	}
	if c.Appchain, err = a.settings.Appchain(); err != nil {
		return nil, err
	}
	if c.Price, err = a.settings.Price(); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *Anchor) stateChanged(now uint64, state lifecycle.State) error {
	logger.Info("appchain state changed", "state", state)
	return a.events.append(now, StateChanged, 0, state.String())
}

// UpdateProtocolSettings changes the staking rules. Applies to later operations only.
func (a *Anchor) UpdateProtocolSettings(ctx context.Context, caller types.AccountID, fn func(*settings.Protocol)) error {
	return a.exec(ctx, "update_protocol_settings", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, owner); err != nil {
			return nil, err
		}
		if err := a.settings.UpdateProtocol(fn); err != nil {
			return nil, err
		}
		return nil, a.events.append(now, SettingsChanged, 0, "protocol")
	})
}

// UpdateAppchainSettings changes the appchain's boot parameters and era reward.
func (a *Anchor) UpdateAppchainSettings(ctx context.Context, caller types.AccountID, fn func(*settings.Appchain)) error {
	return a.exec(ctx, "update_appchain_settings", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, owner); err != nil {
			return nil, err
		}
		if err := a.settings.UpdateAppchain(fn); err != nil {
			return nil, err
		}
		return nil, a.events.append(now, SettingsChanged, 0, "appchain")
	})
}

// UpdateAnchorSettings changes the privileged accounts.
func (a *Anchor) UpdateAnchorSettings(ctx context.Context, caller types.AccountID, fn func(*settings.Anchor)) error {
	return a.exec(ctx, "update_anchor_settings", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, owner); err != nil {
			return nil, err
		}
		if err := a.settings.UpdateAnchor(fn); err != nil {
			return nil, err
		}
		s, err := a.settings.Anchor()
		if err != nil {
			return nil, err
		}
		if s.Owner.IsZero() {
			return nil, reverts.ErrInvalidSettings
		}
		return nil, a.events.append(now, SettingsChanged, 0, "anchor")
	})
}

// SetDepositTokenPrice records the deposit token price used by the booting check.
func (a *Anchor) SetDepositTokenPrice(ctx context.Context, caller types.AccountID, price *big.Int, decimals uint8) error {
	return a.exec(ctx, "set_token_price", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, priceFeeder, owner); err != nil {
			return nil, err
		}
		if err := types.CheckAmount(price); err != nil {
			return nil, reverts.ErrInvalidAmount
		}
		return nil, a.settings.UpdatePrice(func(p *settings.Price) {
			p.DepositTokenPrice = types.Copy(price)
			p.Decimals = decimals
		})
	})
}
