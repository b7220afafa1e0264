// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/vechain/anchor/types"
)

// Validator is the next era view of a validator.
type Validator struct {
	ID               types.AccountID
	AppchainID       string
	Deposit          *big.Int
	Delegated        *big.Int // sum of the deposits of its delegators
	CanBeDelegatedTo bool
	RegisteredAt     uint64
}

// TotalStake returns own deposit plus delegated deposits.
func (v *Validator) TotalStake() *big.Int {
	return types.Sum(v.Deposit, v.Delegated)
}

// Delegator is a delegation of one account to one validator.
type Delegator struct {
	ID           types.AccountID
	ValidatorID  types.AccountID
	Deposit      *big.Int
	RegisteredAt uint64
}

// Status is the aggregate of the next era.
type Status struct {
	TotalStake     *big.Int
	ValidatorCount uint64
	DelegatorCount uint64
}

// Release is a stake leaving the ledger, to be queued for unbonding.
type Release struct {
	Owner  types.AccountID
	Amount *big.Int
	Role   types.Role
}

type HistoryKind uint8

const (
	ValidatorRegistered HistoryKind = iota + 1
	StakeIncreased
	StakeDecreased
	ValidatorUnbonded
	DelegatorRegistered
	DelegationIncreased
	DelegationDecreased
	DelegatorUnbonded
	DelegationEnabled
	DelegationDisabled
)

var historyKindNames = map[HistoryKind]string{
	ValidatorRegistered: "ValidatorRegistered",
	StakeIncreased:      "StakeIncreased",
	StakeDecreased:      "StakeDecreased",
	ValidatorUnbonded:   "ValidatorUnbonded",
	DelegatorRegistered: "DelegatorRegistered",
	DelegationIncreased: "DelegationIncreased",
	DelegationDecreased: "DelegationDecreased",
	DelegatorUnbonded:   "DelegatorUnbonded",
	DelegationEnabled:   "DelegationEnabled",
	DelegationDisabled:  "DelegationDisabled",
}

func (k HistoryKind) String() string {
	if name, ok := historyKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// History is an append-only audit record of a ledger change.
type History struct {
	Sequence  uint64
	Kind      HistoryKind
	Actor     types.AccountID
	Validator types.AccountID
	Amount    *big.Int
	Timestamp uint64
}
