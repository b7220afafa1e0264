// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

// Phase is the processing status of an era. It only moves forward.
type Phase uint8

const (
	AwaitingReward Phase = iota + 1
	Initiated
	DistributingValidatorRewards
	DistributingDelegatorRewards
	SettlingRemainder
	Completed
)

var phaseNames = map[Phase]string{
	AwaitingReward:               "AwaitingReward",
	Initiated:                    "Initiated",
	DistributingValidatorRewards: "DistributingValidatorRewards",
	DistributingDelegatorRewards: "DistributingDelegatorRewards",
	SettlingRemainder:            "SettlingRemainder",
	Completed:                    "Completed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}

// Status is the persisted settlement progress of an era.
type Status struct {
	Era             types.Era
	Phase           Phase
	TotalReward     *big.Int
	EligibleStake   *big.Int
	Excluded        []types.AccountID
	CommissionBps   uint64
	Treasury        types.AccountID
	ValidatorCursor uint64
	DelegatorCursor uint64
	Distributed     *big.Int // confirmed payouts
	InFlight        uint64
}

// IsExcluded reports whether the validator was declared unprofitable for the era.
func (s *Status) IsExcluded(id types.AccountID) bool {
	for _, e := range s.Excluded {
		if e == id {
			return true
		}
	}
	return false
}

type RewardKind uint8

const (
	ValidatorRewardKind RewardKind = iota + 1
	DelegatorRewardKind
	RemainderKind
)

// Reward is the write-once reward record of one recipient in one era.
type Reward struct {
	Era            types.Era
	Kind           RewardKind
	Recipient      types.AccountID
	ValidatorID    types.AccountID
	ValidatorIndex uint64
	DelegatorIndex uint64
	Amount         *big.Int
	// TotalReward is the validator's whole share for validator rewards.
	TotalReward *big.Int
}

// Key identifies the reward within the settlement state.
func (r *Reward) Key() []byte {
	return rewardKey(r.Era, r.Kind, r.Recipient, r.ValidatorID)
}

func rewardKey(era types.Era, kind RewardKind, recipient, validator types.AccountID) storage.BytesKey {
	return storage.CompositeKey(era, storage.Index(kind), recipient, validator)
}

// payout tracks the transfer of a reward.
type payout struct {
	Token uint64
	Paid  bool
}

// RewardView is a reward joined with its payout state.
type RewardView struct {
	*Reward
	Paid bool
}

// Dispatch is a payout transfer to be requested from the reward token.
type Dispatch struct {
	Era       types.Era
	Key       []byte
	Recipient types.AccountID
	Amount    *big.Int
	Token     uint64
}

// Tokens allocates resumption tokens.
type Tokens interface {
	Next() (uint64, error)
}
