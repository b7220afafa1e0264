// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

// Role is the staking role of an account.
type Role uint8

const (
	RoleValidator Role = iota + 1
	RoleDelegator
)

func (r Role) String() string {
	switch r {
	case RoleValidator:
		return "validator"
	case RoleDelegator:
		return "delegator"
	default:
		return "unknown"
	}
}
