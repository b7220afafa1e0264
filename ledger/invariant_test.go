// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"fmt"
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/types"
)

type randomOp struct {
	Kind      uint8
	Actor     uint8
	Validator uint8
	Amount    uint16
	Flag      bool
}

var accounts = []types.AccountID{"a0", "a1", "a2", "a3", "a4", "a5"}

func (op randomOp) run(l *Service) error {
	p := testProtocol()
	p.MaximumValidatorCount = 4
	p.MaximumDelegatorsPerValidator = 3

	actor := accounts[int(op.Actor)%len(accounts)]
	validator := accounts[int(op.Validator)%len(accounts)]
	amount := big.NewInt(int64(op.Amount%300) + 1)

	var err error
	switch op.Kind % 9 {
	case 0:
		_, err = l.RegisterValidator(now, p, actor, "0x"+string(actor), amount, op.Flag)
	case 1:
		_, err = l.RegisterDelegator(now, p, actor, validator, amount)
	case 2:
		_, err = l.IncreaseStake(now, actor, amount)
	case 3:
		_, err = l.IncreaseDelegation(now, actor, validator, amount)
	case 4:
		_, err = l.DecreaseStake(now, p, actor, amount)
	case 5:
		_, err = l.DecreaseDelegation(now, actor, validator, amount)
	case 6:
		_, err = l.UnbondStake(now, actor)
	case 7:
		_, err = l.UnbondDelegation(now, actor, validator)
	case 8:
		err = l.SetDelegatable(now, actor, op.Flag)
	}
	return err
}

// Random operation sequences must keep the aggregate equal to the sum of all deposits,
// and every rejection must be a revert.
func TestLedgerConservation(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			l := newLedger(t)
			f := fuzz.NewWithSeed(seed).NilChance(0)

			released := new(big.Int)
			deposited := new(big.Int)
			for range 200 {
				var op randomOp
				f.Fuzz(&op)

				before, err := l.Status()
				require.NoError(t, err)

				err = op.run(l)
				if err != nil {
					require.True(t, reverts.IsRevertErr(err), "unexpected error %v", err)
					after, err := l.Status()
					require.NoError(t, err)
					assert.Equal(t, before.TotalStake.String(), after.TotalStake.String())
					continue
				}

				after, err := l.Status()
				require.NoError(t, err)
				diff := new(big.Int).Sub(after.TotalStake, before.TotalStake)
				if diff.Sign() >= 0 {
					deposited.Add(deposited, diff)
				} else {
					released.Sub(released, diff)
				}

				re, err := l.Recompute()
				require.NoError(t, err)
				require.Equal(t, re.TotalStake.String(), after.TotalStake.String())
				require.Equal(t, re.ValidatorCount, after.ValidatorCount)
				require.Equal(t, re.DelegatorCount, after.DelegatorCount)
			}

			st, err := l.Status()
			require.NoError(t, err)
			assert.Equal(t, new(big.Int).Sub(deposited, released).String(), st.TotalStake.String())
		})
	}
}
