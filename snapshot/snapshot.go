// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/ledger"
	"github.com/vechain/anchor/log"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

var (
	slotHeaders    = storage.NewSlot("snapshot-headers")
	slotValidators = storage.NewSlot("snapshot-validators")
	slotIndex      = storage.NewSlot("snapshot-index")
	slotAppchainID = storage.NewSlot("snapshot-appchain-index")
	slotNextEra    = storage.NewSlot("snapshot-next-era")

	logger = log.WithContext("pkg", "snapshot")
)

type DelegatorStake struct {
	ID    types.AccountID
	Stake *big.Int
}

// ValidatorStake is a validator frozen in an era. Stake is its own deposit,
// TotalStake includes its delegators.
type ValidatorStake struct {
	ID         types.AccountID
	AppchainID string
	Stake      *big.Int
	TotalStake *big.Int
	Delegators []DelegatorStake
}

// Delegated returns the stake of the delegators.
func (v *ValidatorStake) Delegated() *big.Int {
	return new(big.Int).Sub(v.TotalStake, v.Stake)
}

type Header struct {
	Era            types.Era
	TotalStake     *big.Int
	ValidatorCount uint64
	CreatedAt      uint64
}

// Info is the validator set of an era.
type Info struct {
	Header
	Validators []*ValidatorStake
}

// Source is the live ledger read path.
type Source interface {
	Validators() ([]*ledger.Validator, error)
	DelegatorsOf(validatorID types.AccountID) ([]*ledger.Delegator, error)
}

// Service stores the immutable per era validator sets.
type Service struct {
	sctx    *storage.Context
	headers *storage.Mapping[types.Era, *Header]
	index   *storage.Mapping[storage.BytesKey, uint64] // position + 1
	byApp   *storage.Mapping[storage.BytesKey, uint64] // position + 1
	nextEra *storage.Raw[uint64]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		sctx:    sctx,
		headers: storage.NewMapping[types.Era, *Header](sctx, slotHeaders),
		index:   storage.NewMapping[storage.BytesKey, uint64](sctx, slotIndex),
		byApp:   storage.NewMapping[storage.BytesKey, uint64](sctx, slotAppchainID),
		nextEra: storage.NewRaw[uint64](sctx, slotNextEra),
	}
}

func (s *Service) validators(era types.Era) *storage.Array[*ValidatorStake] {
	return storage.NewArray[*ValidatorStake](s.sctx, slotValidators.Sub(era.Bytes()))
}

func indexKey(era types.Era, id types.AccountID) storage.BytesKey {
	return storage.CompositeKey(era, id)
}

func appchainKey(era types.Era, appchainID string) storage.BytesKey {
	return storage.CompositeKey(era, storage.StringKey(appchainID))
}

// NextEra returns the era number the next snapshot must carry.
func (s *Service) NextEra() (types.Era, error) {
	n, err := s.nextEra.Get()
	return types.Era(n), err
}

// Latest returns the most recent snapshotted era.
func (s *Service) Latest() (types.Era, bool, error) {
	n, err := s.nextEra.Get()
	if err != nil || n == 0 {
		return 0, false, err
	}
	return types.Era(n - 1), true, nil
}

// Create freezes the live ledger into the validator set of era.
// Eras are snapshotted exactly once and in sequence, starting at zero.
func (s *Service) Create(era types.Era, now uint64, src Source) (*Header, error) {
	existing, err := s.Header(era)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, reverts.ErrEraAlreadySnapshotted
	}
	next, err := s.NextEra()
	if err != nil {
		return nil, err
	}
	if era != next {
		return nil, errors.Wrapf(reverts.ErrUnexpectedEra, "want %d, got %d", next, era)
	}

	live, err := src.Validators()
	if err != nil {
		return nil, err
	}
	arr := s.validators(era)
	header := &Header{Era: era, TotalStake: new(big.Int), CreatedAt: now}
	for _, v := range live {
		delegators, err := src.DelegatorsOf(v.ID)
		if err != nil {
			return nil, err
		}
		vs := &ValidatorStake{
			ID:         v.ID,
			AppchainID: v.AppchainID,
			Stake:      types.Copy(v.Deposit),
			TotalStake: v.TotalStake(),
			Delegators: make([]DelegatorStake, 0, len(delegators)),
		}
		for _, d := range delegators {
			vs.Delegators = append(vs.Delegators, DelegatorStake{ID: d.ID, Stake: types.Copy(d.Deposit)})
		}
		i, err := arr.Push(vs)
		if err != nil {
			return nil, errors.Wrap(err, "failed to store validator stake")
		}
		if err := s.index.Set(indexKey(era, v.ID), i+1); err != nil {
			return nil, err
		}
		if err := s.byApp.Set(appchainKey(era, v.AppchainID), i+1); err != nil {
			return nil, err
		}
		header.TotalStake.Add(header.TotalStake, vs.TotalStake)
		header.ValidatorCount++
	}
	if err := s.headers.Set(era, header); err != nil {
		return nil, errors.Wrap(err, "failed to store snapshot header")
	}
	if err := s.nextEra.Set(uint64(era) + 1); err != nil {
		return nil, err
	}

	logger.Debug("era snapshotted", "era", era, "validators", header.ValidatorCount, "stake", header.TotalStake)
	return header, nil
}

// Header returns the header of era, nil if the era was never snapshotted.
func (s *Service) Header(era types.Era) (*Header, error) {
	h, err := s.headers.Get(era)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get snapshot header")
	}
	return h, nil
}

// Info returns the full validator set of era, nil if unknown.
func (s *Service) Info(era types.Era) (*Info, error) {
	h, err := s.Header(era)
	if err != nil || h == nil {
		return nil, err
	}
	validators, err := s.validators(era).All()
	if err != nil {
		return nil, err
	}
	return &Info{Header: *h, Validators: validators}, nil
}

// ValidatorAt returns the i-th validator of era.
func (s *Service) ValidatorAt(era types.Era, i uint64) (*ValidatorStake, error) {
	return s.validators(era).Get(i)
}

// Validator returns the frozen stake of a validator in era, nil if it was not part of the set.
func (s *Service) Validator(era types.Era, id types.AccountID) (*ValidatorStake, error) {
	pos, err := s.index.Get(indexKey(era, id))
	if err != nil || pos == 0 {
		return nil, err
	}
	return s.validators(era).Get(pos - 1)
}

// ValidatorByAppchainID returns the frozen stake of the validator known as appchainID in era,
// nil if no validator of the set carried that id.
func (s *Service) ValidatorByAppchainID(era types.Era, appchainID string) (*ValidatorStake, error) {
	pos, err := s.byApp.Get(appchainKey(era, appchainID))
	if err != nil || pos == 0 {
		return nil, err
	}
	return s.validators(era).Get(pos - 1)
}
