// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import "github.com/pkg/errors"

// Array is a dynamic array, laid out as a length slot plus an index mapping.
type Array[V any] struct {
	length *Raw[uint64]
	items  *Mapping[Index, V]
}

func NewArray[V any](context *Context, pos Slot) *Array[V] {
	return &Array[V]{
		length: NewRaw[uint64](context, pos),
		items:  NewMapping[Index, V](context, pos.Sub([]byte("items"))),
	}
}

func (a *Array[V]) Len() (uint64, error) {
	return a.length.Get()
}

func (a *Array[V]) Get(i uint64) (value V, err error) {
	n, err := a.length.Get()
	if err != nil {
		return value, err
	}
	if i >= n {
		return value, errors.Errorf("index %d out of range [0, %d)", i, n)
	}
	return a.items.Get(Index(i))
}

func (a *Array[V]) Set(i uint64, value V) error {
	n, err := a.length.Get()
	if err != nil {
		return err
	}
	if i >= n {
		return errors.Errorf("index %d out of range [0, %d)", i, n)
	}
	return a.items.Set(Index(i), value)
}

// Push appends the value and returns its index.
func (a *Array[V]) Push(value V) (uint64, error) {
	n, err := a.length.Get()
	if err != nil {
		return 0, err
	}
	if err := a.items.Set(Index(n), value); err != nil {
		return 0, err
	}
	return n, a.length.Set(n + 1)
}

// SwapRemove removes the element at i by moving the last element into its place.
func (a *Array[V]) SwapRemove(i uint64) error {
	n, err := a.length.Get()
	if err != nil {
		return err
	}
	if i >= n {
		return errors.Errorf("index %d out of range [0, %d)", i, n)
	}
	last := n - 1
	if i != last {
		v, err := a.items.Get(Index(last))
		if err != nil {
			return err
		}
		if err := a.items.Set(Index(i), v); err != nil {
			return err
		}
	}
	a.items.Delete(Index(last))
	return a.length.Set(last)
}

// Range calls fn for elements [from, to) until fn returns false.
func (a *Array[V]) Range(from, to uint64, fn func(i uint64, v V) bool) error {
	n, err := a.length.Get()
	if err != nil {
		return err
	}
	to = min(to, n)
	for i := from; i < to; i++ {
		v, err := a.items.Get(Index(i))
		if err != nil {
			return err
		}
		if !fn(i, v) {
			return nil
		}
	}
	return nil
}

// All loads every element.
func (a *Array[V]) All() ([]V, error) {
	n, err := a.length.Get()
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, n)
	err = a.Range(0, n, func(_ uint64, v V) bool {
		out = append(out, v)
		return true
	})
	return out, err
}
