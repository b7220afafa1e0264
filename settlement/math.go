// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/snapshot"
	"github.com/vechain/anchor/types"
)

// validatorShare is the part of reward proportional to the validator's total stake.
func validatorShare(reward *big.Int, v *snapshot.ValidatorStake, eligible *big.Int) *big.Int {
	return types.MulDiv(reward, v.TotalStake, eligible)
}

// splitShare splits a validator share into the validator's cut and the delegator pool.
// The delegators' proportional part of the share is charged commissionBps in favour of the validator.
func splitShare(share *big.Int, v *snapshot.ValidatorStake, commissionBps uint64) (cut, pool *big.Int) {
	delegated := v.Delegated()
	if delegated.Sign() == 0 {
		return types.Copy(share), new(big.Int)
	}
	part := types.MulDiv(share, delegated, v.TotalStake)
	commission := types.MulDiv(part, new(big.Int).SetUint64(commissionBps), big.NewInt(settings.MaxBps))
	pool = new(big.Int).Sub(part, commission)
	return new(big.Int).Sub(share, pool), pool
}

// delegatorReward is the delegator's part of the pool.
func delegatorReward(pool *big.Int, v *snapshot.ValidatorStake, d snapshot.DelegatorStake) *big.Int {
	return types.MulDiv(pool, d.Stake, v.Delegated())
}
