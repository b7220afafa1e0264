// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"context"
	"math/big"

	"github.com/vechain/anchor/types"
)

// Request asks a token to move Amount out of the anchor's custody to Receiver.
// Reference is unique per logical transfer; a repeated reference must not pay twice.
type Request struct {
	Reference uint64
	Receiver  types.AccountID
	Amount    *big.Int
}

// Collaborator is an external fungible token. Transfer returns immediately; done is
// called exactly once with the outcome, possibly from another goroutine.
type Collaborator interface {
	Transfer(ctx context.Context, req *Request, done func(error))
}

// CollaboratorFunc adapts a function to the Collaborator interface.
type CollaboratorFunc func(ctx context.Context, req *Request, done func(error))

func (f CollaboratorFunc) Transfer(ctx context.Context, req *Request, done func(error)) {
	f(ctx, req, done)
}
