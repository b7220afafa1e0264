// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package profiles

import (
	"github.com/pkg/errors"

	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

var (
	slotProfiles    = storage.NewSlot("profiles")
	slotByAppchain  = storage.NewSlot("profiles-by-appchain-id")
	slotValidatorID = storage.NewSlot("profiles-validator-ids")
)

// Attribute is a free form key/value pair attached to a profile.
type Attribute struct {
	Key   string
	Value string
}

// Profile binds a host chain account to its identity in the appchain.
type Profile struct {
	ValidatorID           types.AccountID
	ValidatorIDInAppchain string
	Metadata              []Attribute
}

// Service is the validator directory: a bidirectional index between host and appchain identities.
type Service struct {
	profiles     *storage.Mapping[types.AccountID, *Profile]
	byAppchainID *storage.Mapping[storage.StringKey, types.AccountID]
	ids          *storage.Set[types.AccountID]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		profiles:     storage.NewMapping[types.AccountID, *Profile](sctx, slotProfiles),
		byAppchainID: storage.NewMapping[storage.StringKey, types.AccountID](sctx, slotByAppchain),
		ids:          storage.NewSet[types.AccountID](sctx, slotValidatorID),
	}
}

// Insert upserts the profile, keeping both indices consistent.
// An appchain id already bound to another validator is rejected.
func (s *Service) Insert(p *Profile) error {
	if p.ValidatorIDInAppchain == "" {
		return reverts.ErrInvalidAppchainID
	}
	appchainID := storage.StringKey(p.ValidatorIDInAppchain)

	owner, err := s.byAppchainID.Get(appchainID)
	if err != nil {
		return errors.Wrap(err, "failed to get appchain id owner")
	}
	if !owner.IsZero() && owner != p.ValidatorID {
		return reverts.ErrAppchainIDTaken
	}

	old, err := s.profiles.Get(p.ValidatorID)
	if err != nil {
		return errors.Wrap(err, "failed to get profile")
	}
	// drop the stale reverse mapping so no appchain id points to a profile not carrying it
	if old != nil && old.ValidatorIDInAppchain != p.ValidatorIDInAppchain {
		s.byAppchainID.Delete(storage.StringKey(old.ValidatorIDInAppchain))
	}

	if err := s.profiles.Set(p.ValidatorID, p); err != nil {
		return errors.Wrap(err, "failed to set profile")
	}
	if err := s.byAppchainID.Set(appchainID, p.ValidatorID); err != nil {
		return errors.Wrap(err, "failed to set appchain id")
	}
	if _, err := s.ids.Add(p.ValidatorID); err != nil {
		return errors.Wrap(err, "failed to index validator id")
	}
	return nil
}

// Get returns the profile of the host account, nil if unknown.
func (s *Service) Get(id types.AccountID) (*Profile, error) {
	p, err := s.profiles.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get profile")
	}
	return p, nil
}

// GetByAppchainID returns the profile bound to the appchain id, nil if unknown.
func (s *Service) GetByAppchainID(appchainID string) (*Profile, error) {
	if appchainID == "" {
		return nil, nil
	}
	id, err := s.byAppchainID.Get(storage.StringKey(appchainID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get appchain id owner")
	}
	if id.IsZero() {
		return nil, nil
	}
	return s.Get(id)
}

// IsAppchainIDAvailable reports whether appchainID is free or already bound to id.
func (s *Service) IsAppchainIDAvailable(appchainID string, id types.AccountID) (bool, error) {
	owner, err := s.byAppchainID.Get(storage.StringKey(appchainID))
	if err != nil {
		return false, err
	}
	return owner.IsZero() || owner == id, nil
}

// Count returns the number of known profiles.
func (s *Service) Count() (uint64, error) {
	return s.ids.Len()
}

// List returns up to count profiles starting at index from.
func (s *Service) List(from, count uint64) ([]*Profile, error) {
	n, err := s.ids.Len()
	if err != nil {
		return nil, err
	}
	out := make([]*Profile, 0)
	for i := from; i < n && uint64(len(out)) < count; i++ {
		id, err := s.ids.At(i)
		if err != nil {
			return nil, err
		}
		p, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}
