// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Raw is a single rlp encoded value stored at a slot.
type Raw[V any] struct {
	context *Context
	pos     Slot
}

func NewRaw[V any](context *Context, pos Slot) *Raw[V] {
	return &Raw[V]{context: context, pos: pos}
}

// Get returns the stored value, or the zero value if unset.
func (r *Raw[V]) Get() (value V, err error) {
	raw, err := r.context.get(r.pos[:])
	if err != nil || len(raw) == 0 {
		return value, err
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrapf(err, "decode %s", r.pos)
	}
	return value, nil
}

func (r *Raw[V]) Set(value V) error {
	val, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", r.pos)
	}
	r.context.put(r.pos[:], val)
	return nil
}

func (r *Raw[V]) Delete() {
	r.context.delete(r.pos[:])
}

// Counter is an auto-incrementing sequence.
type Counter struct {
	raw *Raw[uint64]
}

func NewCounter(context *Context, pos Slot) *Counter {
	return &Counter{raw: NewRaw[uint64](context, pos)}
}

// Current returns the last value issued, 0 if none.
func (c *Counter) Current() (uint64, error) {
	return c.raw.Get()
}

// Next increments and returns the new value, starting at 1.
func (c *Counter) Next() (uint64, error) {
	v, err := c.raw.Get()
	if err != nil {
		return 0, err
	}
	v++
	return v, c.raw.Set(v)
}
