// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import (
	"math/big"

	"github.com/vechain/anchor/ledger"
	"github.com/vechain/anchor/lifecycle"
	"github.com/vechain/anchor/profiles"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/settlement"
	"github.com/vechain/anchor/snapshot"
	"github.com/vechain/anchor/types"
	"github.com/vechain/anchor/unbonding"
)

// Status summarizes the anchor.
type Status struct {
	State             lifecycle.State
	TotalStake        *big.Int
	ValidatorCount    uint64
	DelegatorCount    uint64
	UnbondingTotal    *big.Int
	LastNonce         uint64
	LatestEra         *types.Era
	ActiveSettlements []types.Era
	PendingTransfers  uint64
}

func (a *Anchor) Status() (st *Status, err error) {
	err = a.view(func() error {
		ls, err := a.ledger.Status()
		if err != nil {
			return err
		}
		st = &Status{
			TotalStake:     ls.TotalStake,
			ValidatorCount: ls.ValidatorCount,
			DelegatorCount: ls.DelegatorCount,
		}
		if st.State, err = a.lifecycle.State(); err != nil {
			return err
		}
		if st.UnbondingTotal, err = a.unbonding.Total(); err != nil {
			return err
		}
		if st.LastNonce, err = a.inbox.LastNonce(); err != nil {
			return err
		}
		era, ok, err := a.snapshots.Latest()
		if err != nil {
			return err
		}
		if ok {
			st.LatestEra = &era
		}
		if st.ActiveSettlements, err = a.settlement.ActiveEras(); err != nil {
			return err
		}
		st.PendingTransfers, err = a.transfers.count()
		return err
	})
	return
}

// Validators lists the validators of the next era's set.
func (a *Anchor) Validators() (vs []*ledger.Validator, err error) {
	err = a.view(func() error {
		vs, err = a.ledger.Validators()
		return err
	})
	return
}

func (a *Anchor) Validator(id types.AccountID) (v *ledger.Validator, err error) {
	err = a.view(func() error {
		v, err = a.ledger.Validator(id)
		return err
	})
	return
}

// Delegators lists the delegators of validatorID in the next era's set.
func (a *Anchor) Delegators(validatorID types.AccountID) (ds []*ledger.Delegator, err error) {
	err = a.view(func() error {
		ds, err = a.ledger.DelegatorsOf(validatorID)
		return err
	})
	return
}

// Delegations lists the delegations held by id.
func (a *Anchor) Delegations(id types.AccountID) (ds []*ledger.Delegator, err error) {
	err = a.view(func() error {
		ds, err = a.ledger.DelegationsOf(id)
		return err
	})
	return
}

// ValidatorSet returns the snapshotted validator set of era.
func (a *Anchor) ValidatorSet(era types.Era) (info *snapshot.Info, err error) {
	err = a.view(func() error {
		info, err = a.snapshotCache.GetOrLoad(era, func(era types.Era) (*snapshot.Info, bool, error) {
			info, err := a.snapshots.Info(era)
			return info, info != nil, err
		})
		return err
	})
	if changed, hit, miss := a.snapshotCache.Stats().Stats(); changed {
		metricSnapshotCache().SetWithLabel(hit, map[string]string{"result": "hit"})
		metricSnapshotCache().SetWithLabel(miss, map[string]string{"result": "miss"})
		logger.Debug("snapshot cache", "hit", hit, "miss", miss)
	}
	if err == nil && info == nil {
		err = reverts.ErrUnknownEra
	}
	return
}

func (a *Anchor) Profile(id types.AccountID) (p *profiles.Profile, err error) {
	err = a.view(func() error {
		p, err = a.profiles.Get(id)
		return err
	})
	return
}

func (a *Anchor) ProfileByAppchainID(appchainID string) (p *profiles.Profile, err error) {
	err = a.view(func() error {
		p, err = a.profiles.GetByAppchainID(appchainID)
		return err
	})
	return
}

// UnbondedStakes lists the unbonding entries of owner.
func (a *Anchor) UnbondedStakes(owner types.AccountID) (es []*unbonding.Entry, err error) {
	err = a.view(func() error {
		es, err = a.unbonding.Entries(owner)
		return err
	})
	return
}

// SettlementStatus returns the settlement progress of era.
func (a *Anchor) SettlementStatus(era types.Era) (st *settlement.Status, err error) {
	err = a.view(func() error {
		st, err = a.settlement.Status(era)
		return err
	})
	if err == nil && st == nil {
		err = reverts.ErrUnknownEra
	}
	return
}

// ValidatorRewards lists the rewards of validator id in eras [from, to].
func (a *Anchor) ValidatorRewards(id types.AccountID, from, to types.Era) (rs []*settlement.RewardView, err error) {
	err = a.view(func() error {
		rs, err = a.settlement.ValidatorRewards(id, from, to)
		return err
	})
	return
}

// DelegatorRewards lists the rewards of delegator id in eras [from, to].
func (a *Anchor) DelegatorRewards(id types.AccountID, from, to types.Era) (rs []*settlement.RewardView, err error) {
	err = a.view(func() error {
		rs, err = a.settlement.DelegatorRewards(id, from, to)
		return err
	})
	return
}

func (a *Anchor) StakingHistories(from, count uint64) (hs []*ledger.History, err error) {
	err = a.view(func() error {
		hs, err = a.ledger.Histories(from, count)
		return err
	})
	return
}

func (a *Anchor) Events(from, count uint64) (es []*Event, err error) {
	err = a.view(func() error {
		es, err = a.events.list(from, count)
		return err
	})
	return
}

// Settings returns a copy of all settings.
func (a *Anchor) Settings() (g *settings.Genesis, err error) {
	err = a.view(func() error {
		g = &settings.Genesis{}
		if g.Protocol, err = a.settings.Protocol(); err != nil {
			return err
		}
		if g.Appchain, err = a.settings.Appchain(); err != nil {
			return err
		}
		if g.Anchor, err = a.settings.Anchor(); err != nil {
			return err
		}
		g.Price, err = a.settings.Price()
		return err
	})
	return
}
