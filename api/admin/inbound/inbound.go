// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package inbound accepts the calls collaborators make into the anchor: relayed
// appchain messages and deposit confirmations. It is served on the admin listener only.
//
// A relayed message that is refused keeps its nonce pending: GET /anchor/status reports
// lastNonce, and the relayer posts lastNonce+1 again with a corrected event to resume.
package inbound

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/api/utils"
	"github.com/vechain/anchor/relay"
	"github.com/vechain/anchor/types"
)

type Anchor interface {
	ApplyMessage(ctx context.Context, caller types.AccountID, msg *relay.Message) error
	OnDepositReceived(ctx context.Context, sender types.AccountID, amount *big.Int, msg *anchor.DepositMessage) (*big.Int, error)
}

type Deposit struct {
	Sender  string                `json:"sender"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
	Message json.RawMessage       `json:"message"`
}

type DepositResult struct {
	Refund *math.HexOrDecimal256 `json:"refund"`
	Error  string                `json:"error,omitempty"`
}

type Inbound struct {
	anchor  Anchor
	relayer types.AccountID
}

// New serves relayed messages on behalf of relayer.
func New(a Anchor, relayer types.AccountID) *Inbound {
	return &Inbound{anchor: a, relayer: relayer}
}

func (i *Inbound) handlePostMessage(w http.ResponseWriter, req *http.Request) error {
	var msg relay.Message
	if err := utils.ParseJSON(req.Body, &msg); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := i.anchor.ApplyMessage(req.Context(), i.relayer, &msg); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"nonce": msg.Nonce})
}

// handlePostDeposit always answers 200 once the body is understood: a rejected
// deposit is reported with the amount the token must refund.
func (i *Inbound) handlePostDeposit(w http.ResponseWriter, req *http.Request) error {
	var d Deposit
	if err := utils.ParseJSON(req.Body, &d); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	sender, err := utils.ParseAccount(d.Sender)
	if err != nil {
		return err
	}
	if d.Amount == nil {
		return utils.BadRequest(errors.New("amount required"))
	}

	amount := (*big.Int)(d.Amount)
	result := &DepositResult{}
	msg, err := anchor.ParseDepositMessage(d.Message)
	if err == nil {
		var refund *big.Int
		refund, err = i.anchor.OnDepositReceived(req.Context(), sender, amount, msg)
		result.Refund = (*math.HexOrDecimal256)(refund)
	}
	if err != nil {
		result.Refund = (*math.HexOrDecimal256)(types.Copy(amount))
		result.Error = err.Error()
	}
	return utils.WriteJSON(w, result)
}

func (i *Inbound) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/messages").
		Methods(http.MethodPost).
		Name("POST /messages").
		HandlerFunc(utils.WrapHandlerFunc(i.handlePostMessage))
	sub.Path("/deposits").
		Methods(http.MethodPost).
		Name("POST /deposits").
		HandlerFunc(utils.WrapHandlerFunc(i.handlePostDeposit))
}
