// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"context"

	"github.com/alitto/pond/v2"
	"github.com/pkg/errors"

	"github.com/vechain/anchor/log"
)

var logger = log.WithContext("pkg", "token")

// Pooled runs the transfers of a collaborator on a bounded worker pool so callers never
// wait on the token.
type Pooled struct {
	inner Collaborator
	pool  pond.Pool
}

func NewPooled(inner Collaborator, maxWorkers, queueSize int) *Pooled {
	return &Pooled{
		inner: inner,
		pool:  pond.NewPool(maxWorkers, pond.WithQueueSize(queueSize), pond.WithNonBlocking(true)),
	}
}

func (p *Pooled) Transfer(ctx context.Context, req *Request, done func(error)) {
	err := p.pool.Go(func() {
		p.inner.Transfer(ctx, req, done)
	})
	if err != nil {
		logger.Warn("transfer not scheduled", "reference", req.Reference, "err", err)
		done(errors.Wrap(err, "schedule transfer"))
	}
}

// Stop waits for the running transfers and rejects new ones.
func (p *Pooled) Stop() {
	p.pool.StopAndWait()
}
