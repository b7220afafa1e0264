// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const (
	domainMapping byte = iota
	domainSub
)

// Key is implemented by mapping keys.
type Key interface {
	Bytes() []byte
}

// Slot is the base position of a storage variable.
type Slot [32]byte

// NewSlot derives a slot from a variable name.
func NewSlot(name string) Slot {
	return blake2b.Sum256([]byte(name))
}

// Sub derives a nested slot, used for per-owner collections.
func (s Slot) Sub(key []byte) Slot {
	return hash(s, domainSub, key)
}

func (s Slot) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Slot) entry(key []byte) []byte {
	h := hash(s, domainMapping, key)
	return h[:]
}

func hash(s Slot, domain byte, key []byte) Slot {
	h, _ := blake2b.New256(nil)
	h.Write(s[:])
	h.Write([]byte{domain})
	h.Write(key)
	var out Slot
	h.Sum(out[:0])
	return out
}

// Index is an uint64 key.
type Index uint64

func (i Index) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return b[:]
}

// StringKey is a string key.
type StringKey string

func (s StringKey) Bytes() []byte {
	return []byte(s)
}

// CompositeKey joins several keys with length prefixes, so ("ab","c") and ("a","bc") differ.
func CompositeKey(parts ...Key) BytesKey {
	var out []byte
	for _, p := range parts {
		b := p.Bytes()
		out = binary.AppendUvarint(out, uint64(len(b)))
		out = append(out, b...)
	}
	return BytesKey(out)
}

// BytesKey is a raw key.
type BytesKey []byte

func (b BytesKey) Bytes() []byte {
	return b
}
