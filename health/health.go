// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/types"
)

// Source lists the transfers whose outcome has not been applied.
type Source interface {
	PendingTransfers() ([]*anchor.PendingTransfer, error)
}

type Transfers struct {
	Pending          int     `json:"pending"`
	OldestToken      *uint64 `json:"oldestToken"`
	OldestAgeSeconds *uint64 `json:"oldestAgeSeconds"`
}

type Status struct {
	Healthy       bool       `json:"healthy"`
	Transfers     *Transfers `json:"transfers"`
	LastProcessed *time.Time `json:"lastProcessed"`
}

type Health struct {
	lock          sync.RWMutex
	source        Source
	clock         types.Clock
	lastProcessed time.Time
}

func New(source Source, clock types.Clock) *Health {
	if clock == nil {
		clock = time.Now
	}
	return &Health{source: source, clock: clock}
}

// Processed records a pass of the continuation loop.
func (h *Health) Processed() {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastProcessed = h.clock()
}

// Status reports unhealthy when a transfer has waited longer than maxPendingAge for its outcome.
func (h *Health) Status(maxPendingAge time.Duration) (*Status, error) {
	pending, err := h.source.PendingTransfers()
	if err != nil {
		return nil, err
	}

	h.lock.RLock()
	defer h.lock.RUnlock()

	st := &Status{
		Healthy:   true,
		Transfers: &Transfers{Pending: len(pending)},
	}
	if !h.lastProcessed.IsZero() {
		last := h.lastProcessed
		st.LastProcessed = &last
	}

	now := h.clock.Unix()
	for _, p := range pending {
		var age uint64
		if now > p.CreatedAt {
			age = now - p.CreatedAt
		}
		if st.Transfers.OldestAgeSeconds == nil || age > *st.Transfers.OldestAgeSeconds {
			token := p.Token
			st.Transfers.OldestToken = &token
			st.Transfers.OldestAgeSeconds = &age
		}
	}
	if st.Transfers.OldestAgeSeconds != nil && time.Duration(*st.Transfers.OldestAgeSeconds)*time.Second > maxPendingAge {
		st.Healthy = false
	}
	return st, nil
}
