// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/types"
)

// change describes one deposit mutation. delegator is nil when the validator's own
// deposit changes. delta is signed.
type change struct {
	kind      HistoryKind
	actor     types.AccountID
	validator *Validator
	delegator *Delegator
	delta     *big.Int
}

// apply is the single path mutating deposits. It updates the entity, the validator's
// delegated sum, the aggregate status and the index sets, then appends the history record.
func (s *Service) apply(now uint64, ch *change) error {
	status, err := s.Status()
	if err != nil {
		return err
	}
	v := ch.validator

	if ch.delegator == nil {
		v.Deposit = new(big.Int).Add(v.Deposit, ch.delta)
	} else {
		ch.delegator.Deposit = new(big.Int).Add(ch.delegator.Deposit, ch.delta)
		v.Delegated = new(big.Int).Add(v.Delegated, ch.delta)
		if ch.delegator.Deposit.Sign() < 0 || v.Delegated.Sign() < 0 {
			return errors.Errorf("negative delegation of %s to %s", ch.delegator.ID, v.ID)
		}
	}
	if v.Deposit.Sign() < 0 {
		return errors.Errorf("negative deposit of %s", v.ID)
	}
	status.TotalStake = new(big.Int).Add(status.TotalStake, ch.delta)

	switch ch.kind {
	case ValidatorRegistered:
		if _, err := s.validatorIDs.Add(v.ID); err != nil {
			return err
		}
		status.ValidatorCount++
	case ValidatorUnbonded:
		if v.Deposit.Sign() != 0 || v.Delegated.Sign() != 0 {
			return errors.Errorf("validator %s unbonded with stake left", v.ID)
		}
		if _, err := s.validatorIDs.Remove(v.ID); err != nil {
			return err
		}
		status.ValidatorCount--
	case DelegatorRegistered:
		d := ch.delegator
		if _, err := s.delegatorsOf(v.ID).Add(d.ID); err != nil {
			return err
		}
		if _, err := s.delegationsOf(d.ID).Add(v.ID); err != nil {
			return err
		}
		status.DelegatorCount++
	case DelegatorUnbonded:
		d := ch.delegator
		if d.Deposit.Sign() != 0 {
			return errors.Errorf("delegator %s unbonded with stake left", d.ID)
		}
		if _, err := s.delegatorsOf(v.ID).Remove(d.ID); err != nil {
			return err
		}
		if _, err := s.delegationsOf(d.ID).Remove(v.ID); err != nil {
			return err
		}
		status.DelegatorCount--
	}

	if ch.kind == ValidatorUnbonded {
		s.validators.Delete(v.ID)
	} else if err := s.validators.Set(v.ID, v); err != nil {
		return errors.Wrap(err, "failed to set validator")
	}
	if d := ch.delegator; d != nil {
		key := delegatorKey(d.ID, v.ID)
		if ch.kind == DelegatorUnbonded {
			s.delegators.Delete(key)
		} else if err := s.delegators.Set(key, d); err != nil {
			return errors.Wrap(err, "failed to set delegator")
		}
	}
	if err := s.status.Set(status); err != nil {
		return errors.Wrap(err, "failed to set status")
	}

	seq, err := s.sequence.Next()
	if err != nil {
		return err
	}
	actor := ch.actor
	if actor.IsZero() {
		actor = v.ID
	}
	if _, err := s.histories.Push(&History{
		Sequence:  seq,
		Kind:      ch.kind,
		Actor:     actor,
		Validator: v.ID,
		Amount:    new(big.Int).Abs(ch.delta),
		Timestamp: now,
	}); err != nil {
		return errors.Wrap(err, "failed to append history")
	}

	logger.Trace("ledger changed", "kind", ch.kind, "actor", actor, "validator", v.ID, "delta", ch.delta, "total", status.TotalStake)
	return nil
}
