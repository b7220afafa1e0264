// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

// Set is an unordered set supporting O(1) add, remove and index access.
// Removal moves the last member into the freed position.
type Set[K Key] struct {
	members *Array[K]
	index   *Mapping[K, uint64] // position + 1
}

func NewSet[K Key](context *Context, pos Slot) *Set[K] {
	return &Set[K]{
		members: NewArray[K](context, pos),
		index:   NewMapping[K, uint64](context, pos.Sub([]byte("index"))),
	}
}

func (s *Set[K]) Contains(key K) (bool, error) {
	pos, err := s.index.Get(key)
	return pos > 0, err
}

// Add inserts the key, returns false if already present.
func (s *Set[K]) Add(key K) (bool, error) {
	pos, err := s.index.Get(key)
	if err != nil || pos > 0 {
		return false, err
	}
	i, err := s.members.Push(key)
	if err != nil {
		return false, err
	}
	return true, s.index.Set(key, i+1)
}

// Remove deletes the key, returns false if absent.
func (s *Set[K]) Remove(key K) (bool, error) {
	pos, err := s.index.Get(key)
	if err != nil || pos == 0 {
		return false, err
	}
	n, err := s.members.Len()
	if err != nil {
		return false, err
	}
	i := pos - 1
	if i != n-1 {
		last, err := s.members.Get(n - 1)
		if err != nil {
			return false, err
		}
		if err := s.index.Set(last, pos); err != nil {
			return false, err
		}
	}
	if err := s.members.SwapRemove(i); err != nil {
		return false, err
	}
	s.index.Delete(key)
	return true, nil
}

func (s *Set[K]) Len() (uint64, error) {
	return s.members.Len()
}

func (s *Set[K]) At(i uint64) (K, error) {
	return s.members.Get(i)
}

func (s *Set[K]) Values() ([]K, error) {
	return s.members.All()
}
