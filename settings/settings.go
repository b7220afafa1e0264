// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settings

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/types"
)

var (
	// one deposit token carries 18 decimals
	oneToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	MinimumValidatorDeposit          = new(big.Int).Mul(big.NewInt(10_000), oneToken)
	MinimumDelegatorDeposit          = new(big.Int).Mul(big.NewInt(1_000), oneToken)
	MinimumTotalStakePriceForBooting = new(big.Int).Mul(big.NewInt(500_000), oneToken)
	MinimumValidatorCount            = uint64(4)
	MaximumValidatorCount            = uint64(60)
	MaximumDelegatorsPerValidator    = uint64(20)
	UnlockPeriodOfValidatorDeposit   = uint64(21) // days
	UnlockPeriodOfDelegatorDeposit   = uint64(7)  // days
	CommissionBps                    = uint64(2_000)
	MaxPayoutsPerStep                = uint64(50)

	PriceDecimals = uint8(6)
)

const MaxBps = 10_000

// Protocol holds the staking rules.
type Protocol struct {
	MinimumValidatorDeposit          *big.Int
	MinimumDelegatorDeposit          *big.Int
	MinimumTotalStakePriceForBooting *big.Int
	MinimumValidatorCount            uint64
	MaximumValidatorCount            uint64
	MaximumDelegatorsPerValidator    uint64
	UnlockPeriodOfValidatorDeposit   uint64
	UnlockPeriodOfDelegatorDeposit   uint64
	CommissionBps                    uint64
	MaxPayoutsPerStep                uint64
}

// DefaultProtocol returns the protocol settings built from the package defaults.
func DefaultProtocol() *Protocol {
	return &Protocol{
		MinimumValidatorDeposit:          types.Copy(MinimumValidatorDeposit),
		MinimumDelegatorDeposit:          types.Copy(MinimumDelegatorDeposit),
		MinimumTotalStakePriceForBooting: types.Copy(MinimumTotalStakePriceForBooting),
		MinimumValidatorCount:            MinimumValidatorCount,
		MaximumValidatorCount:            MaximumValidatorCount,
		MaximumDelegatorsPerValidator:    MaximumDelegatorsPerValidator,
		UnlockPeriodOfValidatorDeposit:   UnlockPeriodOfValidatorDeposit,
		UnlockPeriodOfDelegatorDeposit:   UnlockPeriodOfDelegatorDeposit,
		CommissionBps:                    CommissionBps,
		MaxPayoutsPerStep:                MaxPayoutsPerStep,
	}
}

// Validate checks the protocol settings are coherent.
func (p *Protocol) Validate() error {
	switch {
	case p.MinimumValidatorDeposit == nil || p.MinimumValidatorDeposit.Sign() <= 0:
		return errors.Wrap(reverts.ErrInvalidSettings, "minimum validator deposit must be positive")
	case p.MinimumDelegatorDeposit == nil || p.MinimumDelegatorDeposit.Sign() <= 0:
		return errors.Wrap(reverts.ErrInvalidSettings, "minimum delegator deposit must be positive")
	case p.MinimumTotalStakePriceForBooting == nil || p.MinimumTotalStakePriceForBooting.Sign() < 0:
		return errors.Wrap(reverts.ErrInvalidSettings, "minimum total stake price must not be negative")
	case p.MinimumValidatorCount == 0:
		return errors.Wrap(reverts.ErrInvalidSettings, "minimum validator count must be positive")
	case p.MaximumValidatorCount < p.MinimumValidatorCount:
		return errors.Wrap(reverts.ErrInvalidSettings, "maximum validator count below minimum")
	case p.CommissionBps > MaxBps:
		return errors.Wrap(reverts.ErrInvalidSettings, "commission exceeds 100%")
	case p.MaxPayoutsPerStep == 0:
		return errors.Wrap(reverts.ErrInvalidSettings, "payouts per step must be positive")
	}
	return nil
}

// MinimumDeposit returns the minimum first deposit of the role.
func (p *Protocol) MinimumDeposit(role types.Role) *big.Int {
	if role == types.RoleValidator {
		return p.MinimumValidatorDeposit
	}
	return p.MinimumDelegatorDeposit
}

// UnlockPeriod returns the unbonding delay of the role in seconds.
func (p *Protocol) UnlockPeriod(role types.Role) uint64 {
	if role == types.RoleValidator {
		return p.UnlockPeriodOfValidatorDeposit * types.SecondsPerDay
	}
	return p.UnlockPeriodOfDelegatorDeposit * types.SecondsPerDay
}

// Appchain holds the appchain configuration needed for booting.
type Appchain struct {
	ChainSpec    string
	RawChainSpec string
	BootNodes    string
	RPCEndpoint  string
	EraReward    *big.Int `rlp:"nil"`
}

// Anchor holds the privileged accounts.
type Anchor struct {
	Owner                types.AccountID
	TokenPriceMaintainer types.AccountID
	Relayer              types.AccountID
	Treasury             types.AccountID
}

// TreasuryAccount returns the account receiving settlement remainders.
func (a *Anchor) TreasuryAccount() types.AccountID {
	if a.Treasury.IsZero() {
		return a.Owner
	}
	return a.Treasury
}

// Price holds the price data of the deposit token.
type Price struct {
	DepositTokenPrice *big.Int `rlp:"nil"`
	Decimals          uint8
}

// StakeValue converts a stake amount into its price denominated value.
func (p *Price) StakeValue(stake *big.Int) (*big.Int, error) {
	if p.DepositTokenPrice == nil || p.DepositTokenPrice.Sign() <= 0 {
		return nil, reverts.ErrTokenPriceNotSet
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(p.Decimals)), nil)
	return types.MulDiv(stake, p.DepositTokenPrice, scale), nil
}
