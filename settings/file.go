// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settings

import (
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/anchor/types"
)

// File is the yaml representation of the initial settings. Amounts are decimal strings
// since they exceed the range of yaml integers.
type File struct {
	Protocol struct {
		MinimumValidatorDeposit          string  `yaml:"minimumValidatorDeposit"`
		MinimumDelegatorDeposit          string  `yaml:"minimumDelegatorDeposit"`
		MinimumTotalStakePriceForBooting string  `yaml:"minimumTotalStakePriceForBooting"`
		MinimumValidatorCount            *uint64 `yaml:"minimumValidatorCount"`
		MaximumValidatorCount            *uint64 `yaml:"maximumValidatorCount"`
		MaximumDelegatorsPerValidator    *uint64 `yaml:"maximumDelegatorsPerValidator"`
		UnlockPeriodOfValidatorDeposit   *uint64 `yaml:"unlockPeriodOfValidatorDeposit"`
		UnlockPeriodOfDelegatorDeposit   *uint64 `yaml:"unlockPeriodOfDelegatorDeposit"`
		CommissionBps                    *uint64 `yaml:"commissionBps"`
		MaxPayoutsPerStep                *uint64 `yaml:"maxPayoutsPerStep"`
	} `yaml:"protocol"`
	Appchain struct {
		ChainSpec    string `yaml:"chainSpec"`
		RawChainSpec string `yaml:"rawChainSpec"`
		BootNodes    string `yaml:"bootNodes"`
		RPCEndpoint  string `yaml:"rpcEndpoint"`
		EraReward    string `yaml:"eraReward"`
	} `yaml:"appchain"`
	Anchor struct {
		Owner                string `yaml:"owner"`
		TokenPriceMaintainer string `yaml:"tokenPriceMaintainer"`
		Relayer              string `yaml:"relayer"`
		Treasury             string `yaml:"treasury"`
	} `yaml:"anchor"`
	Price struct {
		DepositTokenPrice string `yaml:"depositTokenPrice"`
		Decimals          *uint8 `yaml:"decimals"`
	} `yaml:"price"`
}

// Genesis is the complete set of settings an anchor starts with.
type Genesis struct {
	Protocol *Protocol
	Appchain *Appchain
	Anchor   *Anchor
	Price    *Price
}

// DefaultGenesis returns default settings owned by owner.
func DefaultGenesis(owner types.AccountID) *Genesis {
	return &Genesis{
		Protocol: DefaultProtocol(),
		Appchain: &Appchain{},
		Anchor:   &Anchor{Owner: owner},
		Price:    &Price{Decimals: PriceDecimals},
	}
}

// LoadFile reads the yaml settings file at path.
func LoadFile(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read settings file")
	}
	return Parse(data)
}

// Parse decodes yaml settings, filling unset fields with defaults.
func Parse(data []byte) (*Genesis, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode settings")
	}

	owner, ok := types.ParseAccountID(f.Anchor.Owner)
	if !ok {
		return nil, errors.Errorf("invalid owner account %q", f.Anchor.Owner)
	}
	g := DefaultGenesis(owner)

	p := g.Protocol
	for _, amount := range []struct {
		name string
		in   string
		out  **big.Int
	}{
		{"minimumValidatorDeposit", f.Protocol.MinimumValidatorDeposit, &p.MinimumValidatorDeposit},
		{"minimumDelegatorDeposit", f.Protocol.MinimumDelegatorDeposit, &p.MinimumDelegatorDeposit},
		{"minimumTotalStakePriceForBooting", f.Protocol.MinimumTotalStakePriceForBooting, &p.MinimumTotalStakePriceForBooting},
		{"eraReward", f.Appchain.EraReward, &g.Appchain.EraReward},
		{"depositTokenPrice", f.Price.DepositTokenPrice, &g.Price.DepositTokenPrice},
	} {
		if amount.in == "" {
			continue
		}
		v, ok := new(big.Int).SetString(strings.ReplaceAll(amount.in, "_", ""), 10)
		if !ok || v.Sign() < 0 {
			return nil, errors.Errorf("invalid amount %q for %s", amount.in, amount.name)
		}
		*amount.out = v
	}
	for _, n := range []struct {
		in  *uint64
		out *uint64
	}{
		{f.Protocol.MinimumValidatorCount, &p.MinimumValidatorCount},
		{f.Protocol.MaximumValidatorCount, &p.MaximumValidatorCount},
		{f.Protocol.MaximumDelegatorsPerValidator, &p.MaximumDelegatorsPerValidator},
		{f.Protocol.UnlockPeriodOfValidatorDeposit, &p.UnlockPeriodOfValidatorDeposit},
		{f.Protocol.UnlockPeriodOfDelegatorDeposit, &p.UnlockPeriodOfDelegatorDeposit},
		{f.Protocol.CommissionBps, &p.CommissionBps},
		{f.Protocol.MaxPayoutsPerStep, &p.MaxPayoutsPerStep},
	} {
		if n.in != nil {
			*n.out = *n.in
		}
	}
	if f.Price.Decimals != nil {
		g.Price.Decimals = *f.Price.Decimals
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g.Appchain.ChainSpec = f.Appchain.ChainSpec
	g.Appchain.RawChainSpec = f.Appchain.RawChainSpec
	g.Appchain.BootNodes = f.Appchain.BootNodes
	g.Appchain.RPCEndpoint = f.Appchain.RPCEndpoint

	for _, acc := range []struct {
		in  string
		out *types.AccountID
	}{
		{f.Anchor.TokenPriceMaintainer, &g.Anchor.TokenPriceMaintainer},
		{f.Anchor.Relayer, &g.Anchor.Relayer},
		{f.Anchor.Treasury, &g.Anchor.Treasury},
	} {
		if acc.in == "" {
			continue
		}
		id, ok := types.ParseAccountID(acc.in)
		if !ok {
			return nil, errors.Errorf("invalid account %q", acc.in)
		}
		*acc.out = id
	}
	return g, nil
}

// Store writes the genesis settings into the service.
func (s *Service) Store(g *Genesis) error {
	if err := s.SetProtocol(g.Protocol); err != nil {
		return err
	}
	if err := s.appchain.Set(g.Appchain); err != nil {
		return err
	}
	if err := s.anchor.Set(g.Anchor); err != nil {
		return err
	}
	return s.price.Set(g.Price)
}
