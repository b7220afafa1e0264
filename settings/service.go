// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settings

import (
	"github.com/pkg/errors"

	"github.com/vechain/anchor/storage"
)

var (
	slotProtocol = storage.NewSlot("settings-protocol")
	slotAppchain = storage.NewSlot("settings-appchain")
	slotAnchor   = storage.NewSlot("settings-anchor")
	slotPrice    = storage.NewSlot("settings-price")
)

// Service stores the anchor settings.
type Service struct {
	protocol *storage.Raw[*Protocol]
	appchain *storage.Raw[*Appchain]
	anchor   *storage.Raw[*Anchor]
	price    *storage.Raw[*Price]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		protocol: storage.NewRaw[*Protocol](sctx, slotProtocol),
		appchain: storage.NewRaw[*Appchain](sctx, slotAppchain),
		anchor:   storage.NewRaw[*Anchor](sctx, slotAnchor),
		price:    storage.NewRaw[*Price](sctx, slotPrice),
	}
}

// Protocol returns the stored protocol settings, the defaults when none are stored.
func (s *Service) Protocol() (*Protocol, error) {
	p, err := s.protocol.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get protocol settings")
	}
	if p == nil {
		return DefaultProtocol(), nil
	}
	return p, nil
}

func (s *Service) SetProtocol(p *Protocol) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.protocol.Set(p)
}

// UpdateProtocol applies fn to the current protocol settings and stores the result.
func (s *Service) UpdateProtocol(fn func(p *Protocol)) error {
	p, err := s.Protocol()
	if err != nil {
		return err
	}
	fn(p)
	return s.SetProtocol(p)
}

func (s *Service) Appchain() (*Appchain, error) {
	a, err := s.appchain.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get appchain settings")
	}
	if a == nil {
		return &Appchain{}, nil
	}
	return a, nil
}

func (s *Service) UpdateAppchain(fn func(a *Appchain)) error {
	a, err := s.Appchain()
	if err != nil {
		return err
	}
	fn(a)
	return s.appchain.Set(a)
}

func (s *Service) Anchor() (*Anchor, error) {
	a, err := s.anchor.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get anchor settings")
	}
	if a == nil {
		return &Anchor{}, nil
	}
	return a, nil
}

func (s *Service) UpdateAnchor(fn func(a *Anchor)) error {
	a, err := s.Anchor()
	if err != nil {
		return err
	}
	fn(a)
	return s.anchor.Set(a)
}

func (s *Service) Price() (*Price, error) {
	p, err := s.price.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get price data")
	}
	if p == nil {
		return &Price{Decimals: PriceDecimals}, nil
	}
	return p, nil
}

func (s *Service) UpdatePrice(fn func(p *Price)) error {
	p, err := s.Price()
	if err != nil {
		return err
	}
	fn(p)
	return s.price.Set(p)
}

// Initialized reports whether the anchor settings were ever stored.
func (s *Service) Initialized() (bool, error) {
	a, err := s.anchor.Get()
	if err != nil {
		return false, err
	}
	return a != nil, nil
}
