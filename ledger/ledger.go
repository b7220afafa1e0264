// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/log"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

var (
	slotValidators      = storage.NewSlot("ledger-validators")
	slotValidatorIDs    = storage.NewSlot("ledger-validator-ids")
	slotDelegators      = storage.NewSlot("ledger-delegators")
	slotDelegatorsOf    = storage.NewSlot("ledger-delegators-of")
	slotDelegationsOf   = storage.NewSlot("ledger-delegations-of")
	slotStatus          = storage.NewSlot("ledger-status")
	slotHistories       = storage.NewSlot("ledger-histories")
	slotHistorySequence = storage.NewSlot("ledger-history-sequence")

	logger = log.WithContext("pkg", "ledger")
)

// Service is the staking ledger holding the next era stakes.
type Service struct {
	sctx         *storage.Context
	validators   *storage.Mapping[types.AccountID, *Validator]
	validatorIDs *storage.Set[types.AccountID]
	delegators   *storage.Mapping[storage.BytesKey, *Delegator]
	status       *storage.Raw[*Status]
	histories    *storage.Array[*History]
	sequence     *storage.Counter
}

func New(sctx *storage.Context) *Service {
	return &Service{
		sctx:         sctx,
		validators:   storage.NewMapping[types.AccountID, *Validator](sctx, slotValidators),
		validatorIDs: storage.NewSet[types.AccountID](sctx, slotValidatorIDs),
		delegators:   storage.NewMapping[storage.BytesKey, *Delegator](sctx, slotDelegators),
		status:       storage.NewRaw[*Status](sctx, slotStatus),
		histories:    storage.NewArray[*History](sctx, slotHistories),
		sequence:     storage.NewCounter(sctx, slotHistorySequence),
	}
}

func delegatorKey(id, validatorID types.AccountID) storage.BytesKey {
	return storage.CompositeKey(id, validatorID)
}

// delegatorsOf is the set of delegators attached to a validator.
func (s *Service) delegatorsOf(validatorID types.AccountID) *storage.Set[types.AccountID] {
	return storage.NewSet[types.AccountID](s.sctx, slotDelegatorsOf.Sub(validatorID.Bytes()))
}

// delegationsOf is the set of validators an account delegates to.
func (s *Service) delegationsOf(id types.AccountID) *storage.Set[types.AccountID] {
	return storage.NewSet[types.AccountID](s.sctx, slotDelegationsOf.Sub(id.Bytes()))
}

// RegisterValidator creates a validator with its first deposit.
func (s *Service) RegisterValidator(
	now uint64,
	p *settings.Protocol,
	id types.AccountID,
	appchainID string,
	amount *big.Int,
	canBeDelegatedTo bool,
) (*Validator, error) {
	if err := types.CheckAmount(amount); err != nil {
		return nil, errors.Wrap(reverts.ErrInvalidAmount, err.Error())
	}
	if amount.Cmp(p.MinimumValidatorDeposit) < 0 {
		return nil, reverts.ErrBelowMinimumDeposit
	}
	existing, err := s.Validator(id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, reverts.ErrAlreadyRegistered
	}
	status, err := s.Status()
	if err != nil {
		return nil, err
	}
	if status.ValidatorCount >= p.MaximumValidatorCount {
		return nil, reverts.ErrTooManyValidators
	}

	v := &Validator{
		ID:               id,
		AppchainID:       appchainID,
		Deposit:          new(big.Int),
		Delegated:        new(big.Int),
		CanBeDelegatedTo: canBeDelegatedTo,
		RegisteredAt:     now,
	}
	if err := s.apply(now, &change{kind: ValidatorRegistered, actor: id, validator: v, delta: amount}); err != nil {
		return nil, err
	}
	return v, nil
}

// RegisterDelegator delegates amount to a validator. A repeated delegation to the same
// validator increases the existing entry and is not subject to the registration rules.
func (s *Service) RegisterDelegator(
	now uint64,
	p *settings.Protocol,
	id types.AccountID,
	validatorID types.AccountID,
	amount *big.Int,
) (*Delegator, error) {
	if err := types.CheckAmount(amount); err != nil {
		return nil, errors.Wrap(reverts.ErrInvalidAmount, err.Error())
	}
	if id == validatorID {
		return nil, reverts.ErrSelfDelegation
	}
	v, err := s.mustValidator(validatorID)
	if err != nil {
		return nil, err
	}
	d, err := s.Delegator(id, validatorID)
	if err != nil {
		return nil, err
	}
	if d != nil {
		if err := s.apply(now, &change{kind: DelegationIncreased, actor: id, validator: v, delegator: d, delta: amount}); err != nil {
			return nil, err
		}
		return d, nil
	}

	if !v.CanBeDelegatedTo {
		return nil, reverts.ErrValidatorNotDelegatable
	}
	if amount.Cmp(p.MinimumDelegatorDeposit) < 0 {
		return nil, reverts.ErrBelowMinimumDelegatorDeposit
	}
	count, err := s.delegatorsOf(validatorID).Len()
	if err != nil {
		return nil, err
	}
	if count >= p.MaximumDelegatorsPerValidator {
		return nil, reverts.ErrTooManyDelegators
	}

	d = &Delegator{
		ID:           id,
		ValidatorID:  validatorID,
		Deposit:      new(big.Int),
		RegisteredAt: now,
	}
	if err := s.apply(now, &change{kind: DelegatorRegistered, actor: id, validator: v, delegator: d, delta: amount}); err != nil {
		return nil, err
	}
	return d, nil
}

// IncreaseStake adds amount to the validator's own deposit.
func (s *Service) IncreaseStake(now uint64, id types.AccountID, amount *big.Int) (*Validator, error) {
	if err := types.CheckAmount(amount); err != nil {
		return nil, errors.Wrap(reverts.ErrInvalidAmount, err.Error())
	}
	v, err := s.mustValidator(id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(now, &change{kind: StakeIncreased, actor: id, validator: v, delta: amount}); err != nil {
		return nil, err
	}
	return v, nil
}

// IncreaseDelegation adds amount to an existing delegation.
func (s *Service) IncreaseDelegation(now uint64, id, validatorID types.AccountID, amount *big.Int) (*Delegator, error) {
	if err := types.CheckAmount(amount); err != nil {
		return nil, errors.Wrap(reverts.ErrInvalidAmount, err.Error())
	}
	v, d, err := s.mustDelegation(id, validatorID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(now, &change{kind: DelegationIncreased, actor: id, validator: v, delegator: d, delta: amount}); err != nil {
		return nil, err
	}
	return d, nil
}

// DecreaseStake takes amount out of the validator's deposit. A validator keeping delegators
// must stay at or above the minimum deposit. Decreasing the whole deposit unbonds the validator.
func (s *Service) DecreaseStake(now uint64, p *settings.Protocol, id types.AccountID, amount *big.Int) ([]*Release, error) {
	if err := types.CheckAmount(amount); err != nil {
		return nil, errors.Wrap(reverts.ErrInvalidAmount, err.Error())
	}
	v, err := s.mustValidator(id)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(v.Deposit) > 0 {
		return nil, reverts.ErrInsufficientStakeToDecrease
	}
	remaining := new(big.Int).Sub(v.Deposit, amount)
	if remaining.Cmp(p.MinimumValidatorDeposit) < 0 {
		count, err := s.delegatorsOf(id).Len()
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, reverts.ErrInsufficientStakeToDecrease
		}
	}
	if remaining.Sign() == 0 {
		return s.UnbondStake(now, id)
	}

	if err := s.apply(now, &change{kind: StakeDecreased, actor: id, validator: v, delta: new(big.Int).Neg(amount)}); err != nil {
		return nil, err
	}
	return []*Release{{Owner: id, Amount: types.Copy(amount), Role: types.RoleValidator}}, nil
}

// DecreaseDelegation takes amount out of a delegation. Decreasing the whole deposit unbonds it.
func (s *Service) DecreaseDelegation(now uint64, id, validatorID types.AccountID, amount *big.Int) ([]*Release, error) {
	if err := types.CheckAmount(amount); err != nil {
		return nil, errors.Wrap(reverts.ErrInvalidAmount, err.Error())
	}
	v, d, err := s.mustDelegation(id, validatorID)
	if err != nil {
		return nil, err
	}
	switch amount.Cmp(d.Deposit) {
	case 1:
		return nil, reverts.ErrInsufficientStakeToDecrease
	case 0:
		return s.UnbondDelegation(now, id, validatorID)
	}

	if err := s.apply(now, &change{kind: DelegationDecreased, actor: id, validator: v, delegator: d, delta: new(big.Int).Neg(amount)}); err != nil {
		return nil, err
	}
	return []*Release{{Owner: id, Amount: types.Copy(amount), Role: types.RoleDelegator}}, nil
}

// UnbondStake removes the validator and all delegations attached to it.
func (s *Service) UnbondStake(now uint64, id types.AccountID) ([]*Release, error) {
	v, err := s.mustValidator(id)
	if err != nil {
		return nil, err
	}
	delegatorIDs, err := s.delegatorsOf(id).Values()
	if err != nil {
		return nil, err
	}

	releases := make([]*Release, 0, len(delegatorIDs)+1)
	for _, delegatorID := range delegatorIDs {
		d, err := s.Delegator(delegatorID, id)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, errors.Errorf("delegator %s of %s has no record", delegatorID, id)
		}
		releases = append(releases, &Release{Owner: delegatorID, Amount: types.Copy(d.Deposit), Role: types.RoleDelegator})
		if err := s.apply(now, &change{kind: DelegatorUnbonded, actor: id, validator: v, delegator: d, delta: new(big.Int).Neg(d.Deposit)}); err != nil {
			return nil, err
		}
	}

	releases = append(releases, &Release{Owner: id, Amount: types.Copy(v.Deposit), Role: types.RoleValidator})
	if err := s.apply(now, &change{kind: ValidatorUnbonded, actor: id, validator: v, delta: new(big.Int).Neg(v.Deposit)}); err != nil {
		return nil, err
	}
	logger.Debug("validator unbonded", "validator", id, "delegators", len(delegatorIDs))
	return releases, nil
}

// UnbondDelegation removes a delegation entirely.
func (s *Service) UnbondDelegation(now uint64, id, validatorID types.AccountID) ([]*Release, error) {
	v, d, err := s.mustDelegation(id, validatorID)
	if err != nil {
		return nil, err
	}
	release := &Release{Owner: id, Amount: types.Copy(d.Deposit), Role: types.RoleDelegator}
	if err := s.apply(now, &change{kind: DelegatorUnbonded, actor: id, validator: v, delegator: d, delta: new(big.Int).Neg(d.Deposit)}); err != nil {
		return nil, err
	}
	return []*Release{release}, nil
}

// SetDelegatable toggles whether new delegations to the validator are accepted.
func (s *Service) SetDelegatable(now uint64, id types.AccountID, delegatable bool) error {
	v, err := s.mustValidator(id)
	if err != nil {
		return err
	}
	if v.CanBeDelegatedTo == delegatable {
		return nil
	}
	v.CanBeDelegatedTo = delegatable
	kind := DelegationDisabled
	if delegatable {
		kind = DelegationEnabled
	}
	return s.apply(now, &change{kind: kind, actor: id, validator: v, delta: new(big.Int)})
}

func (s *Service) mustValidator(id types.AccountID) (*Validator, error) {
	v, err := s.Validator(id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, reverts.ErrUnknownValidator
	}
	return v, nil
}

func (s *Service) mustDelegation(id, validatorID types.AccountID) (*Validator, *Delegator, error) {
	v, err := s.mustValidator(validatorID)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.Delegator(id, validatorID)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, reverts.ErrUnknownDelegator
	}
	return v, d, nil
}
