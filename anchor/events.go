// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import (
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

var slotEvents = storage.NewSlot("anchor.events")

type EventKind uint8

const (
	EraSwitched EventKind = iota + 1
	RewardConcluded
	SettlementCompleted
	StateChanged
	SettingsChanged
)

func (k EventKind) String() string {
	switch k {
	case EraSwitched:
		return "EraSwitched"
	case RewardConcluded:
		return "RewardConcluded"
	case SettlementCompleted:
		return "SettlementCompleted"
	case StateChanged:
		return "StateChanged"
	case SettingsChanged:
		return "SettingsChanged"
	default:
		return "Unknown"
	}
}

// Event is an entry of the anchor's append-only event log.
type Event struct {
	Sequence  uint64
	Kind      EventKind
	Era       types.Era
	Detail    string
	Timestamp uint64
}

type eventLog struct {
	entries *storage.Array[*Event]
}

func newEventLog(sctx *storage.Context) *eventLog {
	return &eventLog{entries: storage.NewArray[*Event](sctx, slotEvents)}
}

func (l *eventLog) append(now uint64, kind EventKind, era types.Era, detail string) error {
	n, err := l.entries.Len()
	if err != nil {
		return err
	}
	_, err = l.entries.Push(&Event{Sequence: n, Kind: kind, Era: era, Detail: detail, Timestamp: now})
	return err
}

func (l *eventLog) list(from, count uint64) ([]*Event, error) {
	n, err := l.entries.Len()
	if err != nil || from >= n {
		return nil, err
	}
	to := n
	if count < n-from {
		to = from + count
	}
	out := make([]*Event, 0, to-from)
	err = l.entries.Range(from, to, func(_ uint64, e *Event) bool {
		out = append(out, e)
		return true
	})
	return out, err
}
