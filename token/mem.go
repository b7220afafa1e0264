// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/types"
)

var ErrRejected = errors.New("transfer rejected")

// MemLedger is an in-memory token. It deduplicates by reference and can be told to
// reject transfers to chosen receivers.
type MemLedger struct {
	mu       sync.Mutex
	name     string
	balances map[types.AccountID]*big.Int
	paid     map[uint64]bool
	failures map[types.AccountID]int
	calls    int
}

func NewMemLedger(name string) *MemLedger {
	return &MemLedger{
		name:     name,
		balances: make(map[types.AccountID]*big.Int),
		paid:     make(map[uint64]bool),
		failures: make(map[types.AccountID]int),
	}
}

func (m *MemLedger) Name() string { return m.name }

// FailNext makes the next n transfers to receiver fail.
func (m *MemLedger) FailNext(receiver types.AccountID, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[receiver] = n
}

// Balance returns the amount received by account.
func (m *MemLedger) Balance(account types.AccountID) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.Copy(m.balances[account])
}

// Calls returns the number of transfer attempts.
func (m *MemLedger) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemLedger) Transfer(ctx context.Context, req *Request, done func(error)) {
	done(m.transfer(ctx, req))
}

func (m *MemLedger) transfer(ctx context.Context, req *Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.paid[req.Reference] {
		return nil
	}
	if m.failures[req.Receiver] > 0 {
		m.failures[req.Receiver]--
		return errors.Wrapf(ErrRejected, "%s to %s", m.name, req.Receiver)
	}
	bal := m.balances[req.Receiver]
	if bal == nil {
		bal = new(big.Int)
		m.balances[req.Receiver] = bal
	}
	bal.Add(bal, req.Amount)
	m.paid[req.Reference] = true
	return nil
}
