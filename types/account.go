// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"encoding/binary"
	"strings"
)

// AccountID identifies an account on the host chain.
type AccountID string

// ParseAccountID trims and validates an account id.
// Host chain account ids are lower case, 2 to 64 characters long.
func ParseAccountID(s string) (AccountID, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 64 {
		return "", false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return "", false
		}
	}
	return AccountID(s), true
}

func (a AccountID) String() string {
	return string(a)
}

// IsZero returns whether the id is empty.
func (a AccountID) IsZero() bool {
	return a == ""
}

// Bytes implements storage key encoding.
func (a AccountID) Bytes() []byte {
	return []byte(a)
}

// Era is the number of an appchain era.
type Era uint64

// Bytes implements storage key encoding.
func (e Era) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(e))
	return b[:]
}

// Uint64 returns the era as a plain number.
func (e Era) Uint64() uint64 {
	return uint64(e)
}
