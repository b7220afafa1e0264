// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import (
	"context"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/metrics"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/token"
	"github.com/vechain/anchor/types"
)

var (
	slotTransfers      = storage.NewSlot("anchor.transfers")
	slotTransferIndex  = storage.NewSlot("anchor.transfers.index")
	slotTransferTokens = storage.NewSlot("anchor.transfers.tokens")

	metricTransfers = metrics.LazyLoadCounterVec("transfers_total", []string{"kind", "result"})
)

type TransferKind uint8

const (
	Withdrawal TransferKind = iota + 1
	Payout
)

func (k TransferKind) String() string {
	switch k {
	case Withdrawal:
		return "withdrawal"
	case Payout:
		return "payout"
	default:
		return "unknown"
	}
}

// PendingTransfer is an outbound transfer awaiting its outcome. The record is written in
// the same commit that schedules the transfer and removed by the continuation.
type PendingTransfer struct {
	Token     uint64
	Kind      TransferKind
	Receiver  types.AccountID
	Amount    *big.Int
	Era       types.Era
	Key       []byte
	CreatedAt uint64
}

type transfers struct {
	records *storage.Mapping[storage.Index, *PendingTransfer]
	index   *storage.Set[storage.Index]
	tokens  *storage.Counter
}

func newTransfers(sctx *storage.Context) *transfers {
	return &transfers{
		records: storage.NewMapping[storage.Index, *PendingTransfer](sctx, slotTransfers),
		index:   storage.NewSet[storage.Index](sctx, slotTransferIndex),
		tokens:  storage.NewCounter(sctx, slotTransferTokens),
	}
}

// Next allocates a resumption token.
func (t *transfers) Next() (uint64, error) {
	return t.tokens.Next()
}

func (t *transfers) add(p *PendingTransfer) error {
	if err := t.records.Set(storage.Index(p.Token), p); err != nil {
		return err
	}
	_, err := t.index.Add(storage.Index(p.Token))
	return err
}

func (t *transfers) get(tok uint64) (*PendingTransfer, error) {
	return t.records.Get(storage.Index(tok))
}

func (t *transfers) remove(tok uint64) error {
	t.records.Delete(storage.Index(tok))
	_, err := t.index.Remove(storage.Index(tok))
	return err
}

func (t *transfers) count() (uint64, error) {
	return t.index.Len()
}

func (t *transfers) all() ([]*PendingTransfer, error) {
	toks, err := t.index.Values()
	if err != nil {
		return nil, err
	}
	sort.Slice(toks, func(i, j int) bool { return toks[i] < toks[j] })
	out := make([]*PendingTransfer, 0, len(toks))
	for _, tok := range toks {
		p, err := t.get(uint64(tok))
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

type continuation struct {
	token uint64
	err   error
}

func (a *Anchor) collaborator(kind TransferKind) token.Collaborator {
	if kind == Withdrawal {
		return a.depositToken
	}
	return a.rewardToken
}

// dispatch starts the transfers. Outcomes are queued as continuations and applied by
// ProcessContinuations, never from within the collaborator's callback.
func (a *Anchor) dispatch(ctx context.Context, outbound []*PendingTransfer) {
	if len(outbound) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, p := range outbound {
		tok := p.Token
		a.collaborator(p.Kind).Transfer(ctx, &token.Request{
			Reference: p.Token,
			Receiver:  p.Receiver,
			Amount:    types.Copy(p.Amount),
		}, func(err error) {
			a.continuations.Push(&continuation{token: tok, err: err})
		})
	}
}

// ProcessContinuations applies every queued transfer outcome in scheduling order and
// returns how many were applied.
func (a *Anchor) ProcessContinuations(ctx context.Context) int {
	conts := a.continuations.PopAll()
	sort.SliceStable(conts, func(i, j int) bool { return conts[i].token < conts[j].token })

	applied := 0
	for _, c := range conts {
		err := a.exec(ctx, "continuation", func(now uint64) ([]*PendingTransfer, error) {
			return nil, a.complete(c)
		})
		if err != nil {
			logger.Warn("continuation dropped", "token", c.token, "err", err)
			continue
		}
		applied++
	}
	return applied
}

func (a *Anchor) complete(c *continuation) error {
	p, err := a.transfers.get(c.token)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.Wrapf(reverts.ErrUnknownContinuation, "token %d", c.token)
	}

	result := "confirmed"
	if c.err != nil {
		result = "failed"
		logger.Warn("transfer failed", "kind", p.Kind, "token", p.Token, "receiver", p.Receiver, "amount", p.Amount, "err", c.err)
	}
	metricTransfers().AddWithLabel(1, map[string]string{"kind": p.Kind.String(), "result": result})

	switch p.Kind {
	case Withdrawal:
		if c.err != nil {
			if err := a.unbonding.Release(p.Receiver, p.Token); err != nil {
				return err
			}
			break
		}
		settled, err := a.unbonding.Settle(p.Receiver, p.Token)
		if err != nil {
			return err
		}
		if settled.Cmp(p.Amount) != 0 {
			logger.Error("withdrawal settled amount mismatch", "token", p.Token, "want", p.Amount, "got", settled)
		}
	case Payout:
		if err := a.settlement.Confirm(p.Era, p.Key, p.Token, c.err); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown transfer kind %d", p.Kind)
	}
	return a.transfers.remove(p.Token)
}

// Run applies continuations as they arrive until ctx is done.
func (a *Anchor) Run(ctx context.Context) error {
	for {
		applied := a.ProcessContinuations(ctx)
		if a.onProcessed != nil {
			a.onProcessed(applied)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.continuations.Waiter().C():
		}
	}
}

// Recover re-dispatches transfers whose outcome was not applied before the last shutdown.
// Token references are reused, so collaborators do not pay twice.
func (a *Anchor) Recover(ctx context.Context) (int, error) {
	var pending []*PendingTransfer
	if err := a.view(func() (err error) {
		pending, err = a.transfers.all()
		return
	}); err != nil {
		return 0, err
	}
	if len(pending) > 0 {
		logger.Info("re-dispatching pending transfers", "count", len(pending))
	}
	a.dispatch(ctx, pending)
	return len(pending), nil
}

// PendingTransfers lists the transfers awaiting an outcome.
func (a *Anchor) PendingTransfers() (pending []*PendingTransfer, err error) {
	err = a.view(func() error {
		pending, err = a.transfers.all()
		return err
	})
	return
}
