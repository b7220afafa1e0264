// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/ledger"
	"github.com/vechain/anchor/profiles"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/types"
	"github.com/vechain/anchor/unbonding"
)

func amount(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(types.Copy(v))
}

type Status struct {
	State             string                `json:"state"`
	TotalStake        *math.HexOrDecimal256 `json:"totalStake"`
	ValidatorCount    uint64                `json:"validatorCount"`
	DelegatorCount    uint64                `json:"delegatorCount"`
	UnbondingTotal    *math.HexOrDecimal256 `json:"unbondingTotal"`
	LastNonce         uint64                `json:"lastNonce"`
	LatestEra         *uint64               `json:"latestEra"`
	ActiveSettlements []uint64              `json:"activeSettlements"`
	PendingTransfers  uint64                `json:"pendingTransfers"`
}

func convertStatus(st *anchor.Status) *Status {
	out := &Status{
		State:             st.State.String(),
		TotalStake:        amount(st.TotalStake),
		ValidatorCount:    st.ValidatorCount,
		DelegatorCount:    st.DelegatorCount,
		UnbondingTotal:    amount(st.UnbondingTotal),
		LastNonce:         st.LastNonce,
		ActiveSettlements: make([]uint64, 0, len(st.ActiveSettlements)),
		PendingTransfers:  st.PendingTransfers,
	}
	if st.LatestEra != nil {
		era := st.LatestEra.Uint64()
		out.LatestEra = &era
	}
	for _, era := range st.ActiveSettlements {
		out.ActiveSettlements = append(out.ActiveSettlements, era.Uint64())
	}
	return out
}

type Validator struct {
	ID               string                `json:"id"`
	AppchainID       string                `json:"appchainId"`
	Deposit          *math.HexOrDecimal256 `json:"deposit"`
	Delegated        *math.HexOrDecimal256 `json:"delegated"`
	TotalStake       *math.HexOrDecimal256 `json:"totalStake"`
	CanBeDelegatedTo bool                  `json:"canBeDelegatedTo"`
	RegisteredAt     uint64                `json:"registeredAt"`
	Profile          map[string]string     `json:"profile,omitempty"`
}

func convertValidator(v *ledger.Validator, p *profiles.Profile) *Validator {
	out := &Validator{
		ID:               v.ID.String(),
		AppchainID:       v.AppchainID,
		Deposit:          amount(v.Deposit),
		Delegated:        amount(v.Delegated),
		TotalStake:       amount(v.TotalStake()),
		CanBeDelegatedTo: v.CanBeDelegatedTo,
		RegisteredAt:     v.RegisteredAt,
	}
	if p != nil && len(p.Metadata) > 0 {
		out.Profile = make(map[string]string, len(p.Metadata))
		for _, attr := range p.Metadata {
			out.Profile[attr.Key] = attr.Value
		}
	}
	return out
}

type Delegator struct {
	ID           string                `json:"id"`
	ValidatorID  string                `json:"validatorId"`
	Deposit      *math.HexOrDecimal256 `json:"deposit"`
	RegisteredAt uint64                `json:"registeredAt"`
}

func convertDelegators(ds []*ledger.Delegator) []*Delegator {
	out := make([]*Delegator, 0, len(ds))
	for _, d := range ds {
		out = append(out, &Delegator{
			ID:           d.ID.String(),
			ValidatorID:  d.ValidatorID.String(),
			Deposit:      amount(d.Deposit),
			RegisteredAt: d.RegisteredAt,
		})
	}
	return out
}

type UnbondedStake struct {
	ID         uint64                `json:"id"`
	Amount     *math.HexOrDecimal256 `json:"amount"`
	Role       string                `json:"role"`
	CreatedAt  uint64                `json:"createdAt"`
	UnlockTime uint64                `json:"unlockTime"`
	Pending    bool                  `json:"pending"`
}

func convertUnbonded(es []*unbonding.Entry) []*UnbondedStake {
	out := make([]*UnbondedStake, 0, len(es))
	for _, e := range es {
		out = append(out, &UnbondedStake{
			ID:         e.ID,
			Amount:     amount(e.Amount),
			Role:       e.Role.String(),
			CreatedAt:  e.CreatedAt,
			UnlockTime: e.UnlockTime,
			Pending:    e.Pending != 0,
		})
	}
	return out
}

type History struct {
	Sequence  uint64                `json:"sequence"`
	Kind      string                `json:"kind"`
	Actor     string                `json:"actor"`
	Validator string                `json:"validator"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Timestamp uint64                `json:"timestamp"`
}

func convertHistories(hs []*ledger.History) []*History {
	out := make([]*History, 0, len(hs))
	for _, h := range hs {
		out = append(out, &History{
			Sequence:  h.Sequence,
			Kind:      h.Kind.String(),
			Actor:     h.Actor.String(),
			Validator: h.Validator.String(),
			Amount:    amount(h.Amount),
			Timestamp: h.Timestamp,
		})
	}
	return out
}

type Event struct {
	Sequence  uint64 `json:"sequence"`
	Kind      string `json:"kind"`
	Era       uint64 `json:"era"`
	Detail    string `json:"detail,omitempty"`
	Timestamp uint64 `json:"timestamp"`
}

func convertEvents(es []*anchor.Event) []*Event {
	out := make([]*Event, 0, len(es))
	for _, e := range es {
		out = append(out, &Event{
			Sequence:  e.Sequence,
			Kind:      e.Kind.String(),
			Era:       e.Era.Uint64(),
			Detail:    e.Detail,
			Timestamp: e.Timestamp,
		})
	}
	return out
}

type Settings struct {
	Protocol struct {
		MinimumValidatorDeposit          *math.HexOrDecimal256 `json:"minimumValidatorDeposit"`
		MinimumDelegatorDeposit          *math.HexOrDecimal256 `json:"minimumDelegatorDeposit"`
		MinimumTotalStakePriceForBooting *math.HexOrDecimal256 `json:"minimumTotalStakePriceForBooting"`
		MinimumValidatorCount            uint64                `json:"minimumValidatorCount"`
		MaximumValidatorCount            uint64                `json:"maximumValidatorCount"`
		MaximumDelegatorsPerValidator    uint64                `json:"maximumDelegatorsPerValidator"`
		UnlockPeriodOfValidatorDeposit   uint64                `json:"unlockPeriodOfValidatorDeposit"`
		UnlockPeriodOfDelegatorDeposit   uint64                `json:"unlockPeriodOfDelegatorDeposit"`
		CommissionBps                    uint64                `json:"commissionBps"`
		MaxPayoutsPerStep                uint64                `json:"maxPayoutsPerStep"`
	} `json:"protocol"`
	Appchain struct {
		ChainSpec    string                `json:"chainSpec"`
		RawChainSpec string                `json:"rawChainSpec"`
		BootNodes    string                `json:"bootNodes"`
		RPCEndpoint  string                `json:"rpcEndpoint"`
		EraReward    *math.HexOrDecimal256 `json:"eraReward"`
	} `json:"appchain"`
	Anchor struct {
		Owner                string `json:"owner"`
		TokenPriceMaintainer string `json:"tokenPriceMaintainer"`
		Relayer              string `json:"relayer"`
		Treasury             string `json:"treasury"`
	} `json:"anchor"`
	Price struct {
		DepositTokenPrice *math.HexOrDecimal256 `json:"depositTokenPrice"`
		Decimals          uint8                 `json:"decimals"`
	} `json:"price"`
}

func convertSettings(g *settings.Genesis) *Settings {
	var out Settings
	p := g.Protocol
	out.Protocol.MinimumValidatorDeposit = amount(p.MinimumValidatorDeposit)
	out.Protocol.MinimumDelegatorDeposit = amount(p.MinimumDelegatorDeposit)
	out.Protocol.MinimumTotalStakePriceForBooting = amount(p.MinimumTotalStakePriceForBooting)
	out.Protocol.MinimumValidatorCount = p.MinimumValidatorCount
	out.Protocol.MaximumValidatorCount = p.MaximumValidatorCount
	out.Protocol.MaximumDelegatorsPerValidator = p.MaximumDelegatorsPerValidator
	out.Protocol.UnlockPeriodOfValidatorDeposit = p.UnlockPeriodOfValidatorDeposit
	out.Protocol.UnlockPeriodOfDelegatorDeposit = p.UnlockPeriodOfDelegatorDeposit
	out.Protocol.CommissionBps = p.CommissionBps
	out.Protocol.MaxPayoutsPerStep = p.MaxPayoutsPerStep

	out.Appchain.ChainSpec = g.Appchain.ChainSpec
	out.Appchain.RawChainSpec = g.Appchain.RawChainSpec
	out.Appchain.BootNodes = g.Appchain.BootNodes
	out.Appchain.RPCEndpoint = g.Appchain.RPCEndpoint
	if g.Appchain.EraReward != nil {
		out.Appchain.EraReward = amount(g.Appchain.EraReward)
	}

	out.Anchor.Owner = g.Anchor.Owner.String()
	out.Anchor.TokenPriceMaintainer = g.Anchor.TokenPriceMaintainer.String()
	out.Anchor.Relayer = g.Anchor.Relayer.String()
	out.Anchor.Treasury = g.Anchor.TreasuryAccount().String()

	if g.Price.DepositTokenPrice != nil {
		out.Price.DepositTokenPrice = amount(g.Price.DepositTokenPrice)
	}
	out.Price.Decimals = g.Price.Decimals
	return &out
}
