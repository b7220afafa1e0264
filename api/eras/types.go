// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eras

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/anchor/settlement"
	"github.com/vechain/anchor/snapshot"
	"github.com/vechain/anchor/types"
)

func amount(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(types.Copy(v))
}

type DelegatorStake struct {
	ID    string                `json:"id"`
	Stake *math.HexOrDecimal256 `json:"stake"`
}

type ValidatorStake struct {
	ID         string                `json:"id"`
	AppchainID string                `json:"appchainId"`
	Stake      *math.HexOrDecimal256 `json:"stake"`
	TotalStake *math.HexOrDecimal256 `json:"totalStake"`
	Delegators []*DelegatorStake     `json:"delegators"`
}

type ValidatorSet struct {
	Era            uint64                `json:"era"`
	TotalStake     *math.HexOrDecimal256 `json:"totalStake"`
	ValidatorCount uint64                `json:"validatorCount"`
	CreatedAt      uint64                `json:"createdAt"`
	Validators     []*ValidatorStake     `json:"validators"`
}

func convertValidatorSet(info *snapshot.Info) *ValidatorSet {
	out := &ValidatorSet{
		Era:            info.Era.Uint64(),
		TotalStake:     amount(info.TotalStake),
		ValidatorCount: info.ValidatorCount,
		CreatedAt:      info.CreatedAt,
		Validators:     make([]*ValidatorStake, 0, len(info.Validators)),
	}
	for _, v := range info.Validators {
		vs := &ValidatorStake{
			ID:         v.ID.String(),
			AppchainID: v.AppchainID,
			Stake:      amount(v.Stake),
			TotalStake: amount(v.TotalStake),
			Delegators: make([]*DelegatorStake, 0, len(v.Delegators)),
		}
		for _, d := range v.Delegators {
			vs.Delegators = append(vs.Delegators, &DelegatorStake{ID: d.ID.String(), Stake: amount(d.Stake)})
		}
		out.Validators = append(out.Validators, vs)
	}
	return out
}

type Settlement struct {
	Era             uint64                `json:"era"`
	Phase           string                `json:"phase"`
	TotalReward     *math.HexOrDecimal256 `json:"totalReward"`
	EligibleStake   *math.HexOrDecimal256 `json:"eligibleStake"`
	Excluded        []string              `json:"excluded"`
	CommissionBps   uint64                `json:"commissionBps"`
	Treasury        string                `json:"treasury"`
	ValidatorCursor uint64                `json:"validatorCursor"`
	DelegatorCursor uint64                `json:"delegatorCursor"`
	Distributed     *math.HexOrDecimal256 `json:"distributed"`
	InFlight        uint64                `json:"inFlight"`
}

func convertSettlement(st *settlement.Status) *Settlement {
	out := &Settlement{
		Era:             st.Era.Uint64(),
		Phase:           st.Phase.String(),
		TotalReward:     amount(st.TotalReward),
		EligibleStake:   amount(st.EligibleStake),
		Excluded:        make([]string, 0, len(st.Excluded)),
		CommissionBps:   st.CommissionBps,
		Treasury:        st.Treasury.String(),
		ValidatorCursor: st.ValidatorCursor,
		DelegatorCursor: st.DelegatorCursor,
		Distributed:     amount(st.Distributed),
		InFlight:        st.InFlight,
	}
	for _, id := range st.Excluded {
		out.Excluded = append(out.Excluded, id.String())
	}
	return out
}

type Reward struct {
	Era         uint64                `json:"era"`
	Kind        string                `json:"kind"`
	ValidatorID string                `json:"validatorId"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
	Paid        bool                  `json:"paid"`
}

func convertRewards(rs []*settlement.RewardView) []*Reward {
	out := make([]*Reward, 0, len(rs))
	for _, r := range rs {
		out = append(out, &Reward{
			Era:         r.Era.Uint64(),
			Kind:        r.Kind.String(),
			ValidatorID: r.ValidatorID.String(),
			Amount:      amount(r.Amount),
			Paid:        r.Paid,
		})
	}
	return out
}
