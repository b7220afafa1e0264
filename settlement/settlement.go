// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/log"
	"github.com/vechain/anchor/metrics"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/snapshot"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

var (
	slotStatus           = storage.NewSlot("settlement-status")
	slotRewards          = storage.NewSlot("settlement-rewards")
	slotPayouts          = storage.NewSlot("settlement-payouts")
	slotActiveEras       = storage.NewSlot("settlement-active-eras")
	slotDelegatorRewards = storage.NewSlot("settlement-delegator-rewards-of")

	logger = log.WithContext("pkg", "settlement")

	metricPayouts   = metrics.LazyLoadCounterVec("settlement_payouts_total", []string{"kind", "result"})
	metricStepItems = metrics.LazyLoadHistogram("settlement_step_items", metrics.BucketSteps)
)

// Snapshots is the read path of the frozen validator sets.
type Snapshots interface {
	Header(era types.Era) (*snapshot.Header, error)
	ValidatorAt(era types.Era, i uint64) (*snapshot.ValidatorStake, error)
	Validator(era types.Era, id types.AccountID) (*snapshot.ValidatorStake, error)
}

// Service is the reward settlement engine.
type Service struct {
	sctx       *storage.Context
	snapshots  Snapshots
	status     *storage.Mapping[types.Era, *Status]
	rewards    *storage.Mapping[storage.BytesKey, *Reward]
	payouts    *storage.Mapping[storage.BytesKey, *payout]
	activeEras *storage.Set[types.Era]
}

func New(sctx *storage.Context, snapshots Snapshots) *Service {
	return &Service{
		sctx:       sctx,
		snapshots:  snapshots,
		status:     storage.NewMapping[types.Era, *Status](sctx, slotStatus),
		rewards:    storage.NewMapping[storage.BytesKey, *Reward](sctx, slotRewards),
		payouts:    storage.NewMapping[storage.BytesKey, *payout](sctx, slotPayouts),
		activeEras: storage.NewSet[types.Era](sctx, slotActiveEras),
	}
}

// Init sets up the processing status of a freshly snapshotted era.
func (s *Service) Init(era types.Era) error {
	existing, err := s.Status(era)
	if err != nil {
		return err
	}
	if existing != nil {
		return reverts.ErrEraAlreadySnapshotted
	}
	return s.status.Set(era, &Status{
		Era:           era,
		Phase:         AwaitingReward,
		TotalReward:   new(big.Int),
		EligibleStake: new(big.Int),
		Distributed:   new(big.Int),
	})
}

// Conclude records the reward of era and starts its settlement. Excluded validators and
// their delegators take no part in the distribution.
func (s *Service) Conclude(
	era types.Era,
	reward *big.Int,
	excluded []types.AccountID,
	commissionBps uint64,
	treasury types.AccountID,
) (*Status, error) {
	st, err := s.mustStatus(era)
	if err != nil {
		return nil, err
	}
	if st.Phase != AwaitingReward {
		return nil, reverts.ErrRewardAlreadyConcluded
	}
	if reward == nil || reward.Sign() < 0 {
		return nil, reverts.ErrInvalidAmount
	}
	header, err := s.snapshots.Header(era)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, reverts.ErrUnknownEra
	}

	eligible := types.Copy(header.TotalStake)
	st.Excluded = make([]types.AccountID, 0, len(excluded))
	for _, id := range excluded {
		if st.IsExcluded(id) {
			continue
		}
		v, err := s.snapshots.Validator(era, id)
		if err != nil {
			return nil, err
		}
		// unknown validators have no share to exclude
		if v == nil {
			continue
		}
		st.Excluded = append(st.Excluded, id)
		eligible.Sub(eligible, v.TotalStake)
	}

	st.Phase = Initiated
	st.TotalReward = types.Copy(reward)
	st.EligibleStake = eligible
	st.CommissionBps = commissionBps
	st.Treasury = treasury
	if err := s.status.Set(era, st); err != nil {
		return nil, err
	}
	if _, err := s.activeEras.Add(era); err != nil {
		return nil, err
	}

	logger.Info("era reward concluded", "era", era, "reward", reward, "eligible", eligible, "excluded", len(st.Excluded))
	return st, nil
}

// Resume runs one bounded step of the settlement of era. It returns true once the
// settlement is complete, and the payouts to dispatch otherwise. While payouts of the era
// are unconfirmed the call fails with a concurrency revert.
func (s *Service) Resume(era types.Era, budget uint64, tokens Tokens) (bool, []*Dispatch, error) {
	st, err := s.mustStatus(era)
	if err != nil {
		return false, nil, err
	}
	switch {
	case st.Phase == Completed:
		return true, nil, nil
	case st.Phase == AwaitingReward:
		return false, nil, reverts.ErrRewardNotConcluded
	case st.InFlight > 0:
		return false, nil, reverts.ErrSettlementInProgress
	}
	if budget == 0 {
		budget = 1
	}
	header, err := s.snapshots.Header(era)
	if err != nil {
		return false, nil, err
	}
	if header == nil {
		return false, nil, reverts.ErrUnknownEra
	}

	step := &step{Service: s, st: st, header: header, tokens: tokens}
	if err := step.run(budget); err != nil {
		return false, nil, err
	}
	st.InFlight = uint64(len(step.dispatches))
	if err := s.status.Set(era, st); err != nil {
		return false, nil, err
	}
	metricStepItems().Observe(int64(step.work))

	if st.Phase == Completed {
		if _, err := s.activeEras.Remove(era); err != nil {
			return false, nil, err
		}
		logger.Info("era settlement completed", "era", era, "distributed", st.Distributed, "reward", st.TotalReward)
		return true, nil, nil
	}
	logger.Debug("settlement step", "era", era, "phase", st.Phase, "work", step.work, "dispatched", len(step.dispatches))
	return false, step.dispatches, nil
}

// Confirm records the outcome of a payout transfer. A failed payout stays unsettled and
// the cursor is moved back so the next resumption retries it.
func (s *Service) Confirm(era types.Era, key []byte, token uint64, transferErr error) error {
	st, err := s.mustStatus(era)
	if err != nil {
		return err
	}
	k := storage.BytesKey(key)
	p, err := s.payouts.Get(k)
	if err != nil {
		return err
	}
	if p == nil || p.Paid || p.Token != token || st.InFlight == 0 {
		return reverts.ErrUnknownContinuation
	}
	r, err := s.rewards.Get(k)
	if err != nil {
		return err
	}
	if r == nil {
		return errors.Errorf("payout without reward record in era %d", era)
	}

	st.InFlight--
	p.Token = 0
	kind := r.Kind.String()
	if transferErr == nil {
		p.Paid = true
		st.Distributed = new(big.Int).Add(st.Distributed, r.Amount)
		metricPayouts().AddWithLabel(1, map[string]string{"kind": kind, "result": "paid"})
	} else {
		st.rewind(r)
		metricPayouts().AddWithLabel(1, map[string]string{"kind": kind, "result": "failed"})
		logger.Warn("payout failed, will retry", "era", era, "recipient", r.Recipient, "amount", r.Amount, "err", transferErr)
	}
	if err := s.payouts.Set(k, p); err != nil {
		return err
	}
	return s.status.Set(era, st)
}

// ActiveEras returns the eras whose settlement was concluded but not completed.
func (s *Service) ActiveEras() ([]types.Era, error) {
	return s.activeEras.Values()
}

// Status returns the processing status of era, nil if the era is unknown.
func (s *Service) Status(era types.Era) (*Status, error) {
	st, err := s.status.Get(era)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get processing status")
	}
	return st, nil
}

func (s *Service) mustStatus(era types.Era) (*Status, error) {
	st, err := s.Status(era)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, reverts.ErrUnknownEra
	}
	return st, nil
}

func (k RewardKind) String() string {
	switch k {
	case ValidatorRewardKind:
		return "validator"
	case DelegatorRewardKind:
		return "delegator"
	case RemainderKind:
		return "remainder"
	default:
		return "unknown"
	}
}

// rewind moves the cursor back to the failed reward when it was passed.
func (st *Status) rewind(r *Reward) {
	switch r.Kind {
	case ValidatorRewardKind:
		if st.Phase == DistributingValidatorRewards && r.ValidatorIndex < st.ValidatorCursor {
			st.ValidatorCursor = r.ValidatorIndex
		}
	case DelegatorRewardKind:
		if st.Phase != DistributingDelegatorRewards {
			return
		}
		if r.ValidatorIndex < st.ValidatorCursor ||
			(r.ValidatorIndex == st.ValidatorCursor && r.DelegatorIndex < st.DelegatorCursor) {
			st.ValidatorCursor = r.ValidatorIndex
			st.DelegatorCursor = r.DelegatorIndex
		}
	}
}
