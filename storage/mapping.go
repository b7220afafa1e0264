// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Mapping is a key/value storage abstraction, similar to the mapping in Solidity.
// Values are rlp encoded; a missing key reads as the zero value (nil for pointers).
type Mapping[K Key, V any] struct {
	context *Context
	basePos Slot
}

func NewMapping[K Key, V any](context *Context, pos Slot) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	raw, err := m.context.get(m.basePos.entry(key.Bytes()))
	if err != nil || len(raw) == 0 {
		return value, err
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrap(err, "decode mapping value")
	}
	return value, nil
}

func (m *Mapping[K, V]) Has(key K) (bool, error) {
	raw, err := m.context.get(m.basePos.entry(key.Bytes()))
	return len(raw) > 0, err
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	val, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "encode mapping value")
	}
	m.context.put(m.basePos.entry(key.Bytes()), val)
	return nil
}

func (m *Mapping[K, V]) Delete(key K) {
	m.context.delete(m.basePos.entry(key.Bytes()))
}
