// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Queue is an unbounded FIFO queue safe for concurrent producers.
// Consumers wait on the queue's signal and drain it with PopAll.
type Queue[T any] struct {
	l     sync.Mutex
	items []T
	sig   Signal
}

// Push appends an item and wakes the consumer.
func (q *Queue[T]) Push(item T) {
	q.l.Lock()
	q.items = append(q.items, item)
	q.l.Unlock()

	q.sig.Signal()
}

// PopAll removes and returns all queued items in arrival order.
func (q *Queue[T]) PopAll() []T {
	q.l.Lock()
	defer q.l.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.l.Lock()
	defer q.l.Unlock()

	return len(q.items)
}

// Waiter returns a waiter that fires after a Push.
func (q *Queue[T]) Waiter() Waiter {
	return q.sig.NewWaiter()
}
