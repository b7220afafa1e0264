// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/snapshot"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

// step is one bounded resumption of an era settlement. The cursor in the status is the
// resumption point; a phase is left only when all its rewards are confirmed paid.
type step struct {
	*Service
	st     *Status
	header *snapshot.Header
	tokens Tokens

	work       uint64
	dispatches []*Dispatch

	current      *snapshot.ValidatorStake
	currentIndex uint64
}

func (p *step) run(budget uint64) error {
	st := p.st
	if st.Phase == Initiated {
		st.Phase = DistributingValidatorRewards
		st.ValidatorCursor, st.DelegatorCursor = 0, 0
	}

	for p.work < budget {
		switch st.Phase {
		case DistributingValidatorRewards:
			if st.ValidatorCursor >= p.header.ValidatorCount {
				if len(p.dispatches) > 0 {
					return nil
				}
				st.Phase = DistributingDelegatorRewards
				st.ValidatorCursor, st.DelegatorCursor = 0, 0
				continue
			}
			if err := p.validatorReward(); err != nil {
				return err
			}
		case DistributingDelegatorRewards:
			if st.ValidatorCursor >= p.header.ValidatorCount {
				if len(p.dispatches) > 0 {
					return nil
				}
				st.Phase = SettlingRemainder
				st.ValidatorCursor, st.DelegatorCursor = 0, 0
				continue
			}
			if err := p.delegatorReward(); err != nil {
				return err
			}
		case SettlingRemainder:
			if len(p.dispatches) > 0 {
				return nil
			}
			done, err := p.remainder()
			if err != nil {
				return err
			}
			if done {
				st.Phase = Completed
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

func (p *step) validatorAt(i uint64) (*snapshot.ValidatorStake, error) {
	if p.current != nil && p.currentIndex == i {
		return p.current, nil
	}
	vs, err := p.snapshots.ValidatorAt(p.st.Era, i)
	if err != nil {
		return nil, errors.Wrapf(err, "era %d validator %d", p.st.Era, i)
	}
	p.current, p.currentIndex = vs, i
	return vs, nil
}

// share returns the validator's cut and delegator pool, false when it takes no part.
func (p *step) share(vs *snapshot.ValidatorStake) (cut, pool, share *big.Int, ok bool) {
	st := p.st
	if st.EligibleStake.Sign() == 0 || st.IsExcluded(vs.ID) {
		return nil, nil, nil, false
	}
	share = validatorShare(st.TotalReward, vs, st.EligibleStake)
	cut, pool = splitShare(share, vs, st.CommissionBps)
	return cut, pool, share, true
}

func (p *step) validatorReward() error {
	st := p.st
	i := st.ValidatorCursor
	vs, err := p.validatorAt(i)
	if err != nil {
		return err
	}
	p.work++
	st.ValidatorCursor++

	cut, _, share, ok := p.share(vs)
	if !ok {
		return nil
	}
	return p.settle(&Reward{
		Era:            st.Era,
		Kind:           ValidatorRewardKind,
		Recipient:      vs.ID,
		ValidatorID:    vs.ID,
		ValidatorIndex: i,
		Amount:         cut,
		TotalReward:    share,
	})
}

func (p *step) delegatorReward() error {
	st := p.st
	i, j := st.ValidatorCursor, st.DelegatorCursor
	vs, err := p.validatorAt(i)
	if err != nil {
		return err
	}
	p.work++

	_, pool, _, ok := p.share(vs)
	if !ok || j >= uint64(len(vs.Delegators)) {
		st.ValidatorCursor++
		st.DelegatorCursor = 0
		return nil
	}
	st.DelegatorCursor++

	d := vs.Delegators[j]
	if _, err := p.delegatorRewardsOf(st.Era, d.ID).Add(vs.ID); err != nil {
		return err
	}
	return p.settle(&Reward{
		Era:            st.Era,
		Kind:           DelegatorRewardKind,
		Recipient:      d.ID,
		ValidatorID:    vs.ID,
		ValidatorIndex: i,
		DelegatorIndex: j,
		Amount:         delegatorReward(pool, vs, d),
	})
}

// remainder pays the rounding dust to the treasury. It reports true once nothing is left.
func (p *step) remainder() (bool, error) {
	st := p.st
	key := rewardKey(st.Era, RemainderKind, st.Treasury, "")
	pay, err := p.payouts.Get(key)
	if err != nil {
		return false, err
	}
	if pay != nil && pay.Paid {
		return true, nil
	}
	left := new(big.Int).Sub(st.TotalReward, st.Distributed)
	switch left.Sign() {
	case 0:
		return true, nil
	case -1:
		return false, errors.Errorf("era %d distributed %s over reward %s", st.Era, st.Distributed, st.TotalReward)
	}
	p.work++
	return false, p.settle(&Reward{
		Era:       st.Era,
		Kind:      RemainderKind,
		Recipient: st.Treasury,
		Amount:    left,
	})
}

// settle writes the reward record once and dispatches its payout unless already paid.
func (p *step) settle(r *Reward) error {
	key := storage.BytesKey(r.Key())
	existing, err := p.rewards.Get(key)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := p.rewards.Set(key, r); err != nil {
			return errors.Wrap(err, "failed to record reward")
		}
	} else {
		r = existing
	}

	pay, err := p.payouts.Get(key)
	if err != nil {
		return err
	}
	if pay == nil {
		pay = &payout{}
	}
	if pay.Paid {
		return nil
	}
	if r.Amount.Sign() == 0 {
		pay.Paid = true
		return p.payouts.Set(key, pay)
	}

	token, err := p.tokens.Next()
	if err != nil {
		return err
	}
	pay.Token = token
	if err := p.payouts.Set(key, pay); err != nil {
		return err
	}
	p.dispatches = append(p.dispatches, &Dispatch{
		Era:       r.Era,
		Key:       key,
		Recipient: r.Recipient,
		Amount:    types.Copy(r.Amount),
		Token:     token,
	})
	return nil
}

func (s *Service) delegatorRewardsOf(era types.Era, delegator types.AccountID) *storage.Set[types.AccountID] {
	return storage.NewSet[types.AccountID](s.sctx, slotDelegatorRewards.Sub(storage.CompositeKey(era, delegator)))
}
