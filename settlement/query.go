// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

func (s *Service) view(key storage.BytesKey) (*RewardView, error) {
	r, err := s.rewards.Get(key)
	if err != nil || r == nil {
		return nil, err
	}
	p, err := s.payouts.Get(key)
	if err != nil {
		return nil, err
	}
	return &RewardView{Reward: r, Paid: p != nil && p.Paid}, nil
}

// ValidatorRewards returns the rewards of a validator in eras [from, to].
func (s *Service) ValidatorRewards(id types.AccountID, from, to types.Era) ([]*RewardView, error) {
	out := make([]*RewardView, 0)
	for era := from; era <= to; era++ {
		v, err := s.view(rewardKey(era, ValidatorRewardKind, id, id))
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
		if era == ^types.Era(0) {
			break
		}
	}
	return out, nil
}

// DelegatorRewards returns the rewards of a delegator in eras [from, to], across validators.
func (s *Service) DelegatorRewards(id types.AccountID, from, to types.Era) ([]*RewardView, error) {
	out := make([]*RewardView, 0)
	for era := from; era <= to; era++ {
		validators, err := s.delegatorRewardsOf(era, id).Values()
		if err != nil {
			return nil, err
		}
		for _, validator := range validators {
			v, err := s.view(rewardKey(era, DelegatorRewardKind, id, validator))
			if err != nil {
				return nil, err
			}
			if v != nil {
				out = append(out, v)
			}
		}
		if era == ^types.Era(0) {
			break
		}
	}
	return out, nil
}

// Remainder returns the treasury reward of era, nil until the remainder is settled.
func (s *Service) Remainder(era types.Era) (*RewardView, error) {
	st, err := s.Status(era)
	if err != nil || st == nil {
		return nil, err
	}
	return s.view(rewardKey(era, RemainderKind, st.Treasury, ""))
}
