// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import "time"

// SecondsPerDay is used to convert day based settings into unlock times.
const SecondsPerDay = uint64(24 * 60 * 60)

// Clock returns the current time. Tests replace it with a controllable one.
type Clock func() time.Time

// Unix returns the clock reading as unix seconds.
func (c Clock) Unix() uint64 {
	return uint64(c().Unix())
}
