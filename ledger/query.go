// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/types"
)

// Validator returns the validator, nil if not registered.
func (s *Service) Validator(id types.AccountID) (*Validator, error) {
	v, err := s.validators.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator")
	}
	return v, nil
}

// Delegator returns the delegation of id to validatorID, nil if none.
func (s *Service) Delegator(id, validatorID types.AccountID) (*Delegator, error) {
	d, err := s.delegators.Get(delegatorKey(id, validatorID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegator")
	}
	return d, nil
}

// ValidatorIDs returns the registered validators in index order.
func (s *Service) ValidatorIDs() ([]types.AccountID, error) {
	return s.validatorIDs.Values()
}

// Validators returns all registered validators.
func (s *Service) Validators() ([]*Validator, error) {
	ids, err := s.validatorIDs.Values()
	if err != nil {
		return nil, err
	}
	out := make([]*Validator, 0, len(ids))
	for _, id := range ids {
		v, err := s.mustValidator(id)
		if err != nil {
			return nil, errors.Wrapf(err, "indexed validator %s", id)
		}
		out = append(out, v)
	}
	return out, nil
}

// DelegatorsOf returns the delegations attached to a validator.
func (s *Service) DelegatorsOf(validatorID types.AccountID) ([]*Delegator, error) {
	ids, err := s.delegatorsOf(validatorID).Values()
	if err != nil {
		return nil, err
	}
	out := make([]*Delegator, 0, len(ids))
	for _, id := range ids {
		d, err := s.Delegator(id, validatorID)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, errors.Errorf("delegator %s of %s has no record", id, validatorID)
		}
		out = append(out, d)
	}
	return out, nil
}

// DelegationsOf returns the delegations made by an account.
func (s *Service) DelegationsOf(id types.AccountID) ([]*Delegator, error) {
	validatorIDs, err := s.delegationsOf(id).Values()
	if err != nil {
		return nil, err
	}
	out := make([]*Delegator, 0, len(validatorIDs))
	for _, validatorID := range validatorIDs {
		d, err := s.Delegator(id, validatorID)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

// Status returns the next era aggregate.
func (s *Service) Status() (*Status, error) {
	st, err := s.status.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get status")
	}
	if st == nil {
		return &Status{TotalStake: new(big.Int)}, nil
	}
	return st, nil
}

// Recompute derives the aggregate from the validator and delegator records.
func (s *Service) Recompute() (*Status, error) {
	validators, err := s.Validators()
	if err != nil {
		return nil, err
	}
	st := &Status{TotalStake: new(big.Int)}
	for _, v := range validators {
		st.ValidatorCount++
		st.TotalStake.Add(st.TotalStake, v.Deposit)
		delegators, err := s.DelegatorsOf(v.ID)
		if err != nil {
			return nil, err
		}
		delegated := new(big.Int)
		for _, d := range delegators {
			st.DelegatorCount++
			delegated.Add(delegated, d.Deposit)
		}
		if delegated.Cmp(v.Delegated) != 0 {
			return nil, errors.Errorf("validator %s delegated %s, records sum to %s", v.ID, v.Delegated, delegated)
		}
		st.TotalStake.Add(st.TotalStake, delegated)
	}
	return st, nil
}

// HistoryCount returns the number of staking history records.
func (s *Service) HistoryCount() (uint64, error) {
	return s.histories.Len()
}

// Histories returns up to count history records starting at index from.
func (s *Service) Histories(from, count uint64) ([]*History, error) {
	to := from + count
	if to < from {
		to = math.MaxUint64
	}
	out := make([]*History, 0)
	err := s.histories.Range(from, to, func(_ uint64, h *History) bool {
		out = append(out, h)
		return true
	})
	return out, err
}
