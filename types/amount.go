// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// MaxAmount is the largest amount a token collaborator can move in one transfer (u128).
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// CheckAmount verifies that the amount is positive and fits in a token transfer.
func CheckAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("amount must be positive")
	}
	v, overflow := uint256.FromBig(amount)
	if overflow || v.BitLen() > 128 {
		return errors.New("amount exceeds u128")
	}
	return nil
}

// Copy returns a copy of the amount, treating nil as zero.
func Copy(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(amount)
}

// Sum adds all amounts into a new value.
func Sum(amounts ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, a := range amounts {
		if a != nil {
			total.Add(total, a)
		}
	}
	return total
}

// MulDiv returns floor(a * b / c). It returns zero when c is zero.
func MulDiv(a, b, c *big.Int) *big.Int {
	if c == nil || c.Sign() == 0 {
		return new(big.Int)
	}
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, c)
}
