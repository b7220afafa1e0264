// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter provides channel to wait for.
type Waiter interface {
	C() <-chan struct{}
}

// Signal a rendezvous point for goroutines waiting for or announcing the occurrence of an event.
// Signals raised while nobody waits are coalesced into one.
type Signal struct {
	l  sync.Mutex
	ch chan struct{}
}

func (s *Signal) chLocked() chan struct{} {
	if s.ch == nil {
		s.ch = make(chan struct{}, 1)
	}
	return s.ch
}

// Signal wakes one goroutine that is waiting on s.
func (s *Signal) Signal() {
	s.l.Lock()
	defer s.l.Unlock()

	select {
	case s.chLocked() <- struct{}{}:
	default:
	}
}

// NewWaiter create a Waiter object for acquiring channel to wait for.
func (s *Signal) NewWaiter() Waiter {
	s.l.Lock()
	defer s.l.Unlock()

	return waiter(s.chLocked())
}

type waiter chan struct{}

func (w waiter) C() <-chan struct{} { return w }
