// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package unbonding

import (
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

var (
	slotEntries   = storage.NewSlot("unbonding-entries")
	slotEntryID   = storage.NewSlot("unbonding-entry-id")
	slotOwners    = storage.NewSlot("unbonding-owners")
	slotTotalHeld = storage.NewSlot("unbonding-total")
)

// Entry is a stake waiting for its unlock time. Pending carries the token of the
// withdrawal transfer covering the entry, zero when no transfer is in flight.
type Entry struct {
	ID         uint64
	Owner      types.AccountID
	Amount     *big.Int
	Role       types.Role
	CreatedAt  uint64
	UnlockTime uint64
	Pending    uint64
}

// Matured reports whether the entry can be withdrawn at now.
func (e *Entry) Matured(now uint64) bool {
	return e.UnlockTime <= now
}

// Service is the unbonding queue, partitioned by owner.
type Service struct {
	sctx    *storage.Context
	entryID *storage.Counter
	owners  *storage.Set[types.AccountID]
	total   *storage.Raw[*big.Int]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		sctx:    sctx,
		entryID: storage.NewCounter(sctx, slotEntryID),
		owners:  storage.NewSet[types.AccountID](sctx, slotOwners),
		total:   storage.NewRaw[*big.Int](sctx, slotTotalHeld),
	}
}

func (s *Service) entries(owner types.AccountID) *storage.Array[*Entry] {
	return storage.NewArray[*Entry](s.sctx, slotEntries.Sub(owner.Bytes()))
}

// Enqueue queues amount for owner until unlockTime.
func (s *Service) Enqueue(owner types.AccountID, amount *big.Int, role types.Role, now, unlockTime uint64) (*Entry, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, errors.New("unbonding amount must be positive")
	}
	id, err := s.entryID.Next()
	if err != nil {
		return nil, err
	}
	e := &Entry{
		ID:         id,
		Owner:      owner,
		Amount:     types.Copy(amount),
		Role:       role,
		CreatedAt:  now,
		UnlockTime: unlockTime,
	}
	if _, err := s.entries(owner).Push(e); err != nil {
		return nil, errors.Wrap(err, "failed to queue unbonded stake")
	}
	if _, err := s.owners.Add(owner); err != nil {
		return nil, err
	}
	return e, s.addTotal(amount)
}

// Entries returns all queued entries of owner ordered by creation.
func (s *Service) Entries(owner types.AccountID) ([]*Entry, error) {
	all, err := s.entries(owner).All()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b *Entry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return all, nil
}

// Matured returns the entries of owner withdrawable at now and not covered by a transfer.
func (s *Service) Matured(owner types.AccountID, now uint64) ([]*Entry, error) {
	all, err := s.Entries(owner)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, 0, len(all))
	for _, e := range all {
		if e.Pending == 0 && e.Matured(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

// HasPending reports whether a withdrawal of owner is in flight.
func (s *Service) HasPending(owner types.AccountID) (bool, error) {
	all, err := s.entries(owner).All()
	if err != nil {
		return false, err
	}
	for _, e := range all {
		if e.Pending != 0 {
			return true, nil
		}
	}
	return false, nil
}

// MarkPending binds the entries with the given ids to the transfer token.
func (s *Service) MarkPending(owner types.AccountID, ids []uint64, token uint64) error {
	if token == 0 {
		return errors.New("zero transfer token")
	}
	return s.update(owner, func(e *Entry) bool {
		if slices.Contains(ids, e.ID) {
			e.Pending = token
			return true
		}
		return false
	})
}

// Release unbinds the entries of the failed transfer token, keeping them queued.
func (s *Service) Release(owner types.AccountID, token uint64) error {
	return s.update(owner, func(e *Entry) bool {
		if e.Pending == token {
			e.Pending = 0
			return true
		}
		return false
	})
}

// Settle removes the entries covered by the confirmed transfer token and returns their sum.
func (s *Service) Settle(owner types.AccountID, token uint64) (*big.Int, error) {
	if token == 0 {
		return nil, errors.New("zero transfer token")
	}
	arr := s.entries(owner)
	n, err := arr.Len()
	if err != nil {
		return nil, err
	}
	sum := new(big.Int)
	// backwards, so swapped-in elements were already visited
	for i := n; i > 0; i-- {
		e, err := arr.Get(i - 1)
		if err != nil {
			return nil, err
		}
		if e.Pending != token {
			continue
		}
		sum.Add(sum, e.Amount)
		if err := arr.SwapRemove(i - 1); err != nil {
			return nil, err
		}
	}
	if left, err := arr.Len(); err != nil {
		return nil, err
	} else if left == 0 {
		if _, err := s.owners.Remove(owner); err != nil {
			return nil, err
		}
	}
	return sum, s.addTotal(new(big.Int).Neg(sum))
}

// Total returns the sum of all queued entries.
func (s *Service) Total() (*big.Int, error) {
	t, err := s.total.Get()
	if err != nil {
		return nil, err
	}
	return types.Copy(t), nil
}

// Owners returns the accounts having queued entries.
func (s *Service) Owners() ([]types.AccountID, error) {
	return s.owners.Values()
}

func (s *Service) update(owner types.AccountID, fn func(e *Entry) bool) error {
	arr := s.entries(owner)
	n, err := arr.Len()
	if err != nil {
		return err
	}
	for i := range n {
		e, err := arr.Get(i)
		if err != nil {
			return err
		}
		if fn(e) {
			if err := arr.Set(i, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) addTotal(delta *big.Int) error {
	t, err := s.Total()
	if err != nil {
		return err
	}
	return s.total.Set(t.Add(t, delta))
}
