// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package inbound

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/relay"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/types"
)

type stubAnchor struct {
	caller   types.AccountID
	messages []*relay.Message
	deposits []*anchor.DepositMessage
	reject   error
}

func (s *stubAnchor) ApplyMessage(_ context.Context, caller types.AccountID, msg *relay.Message) error {
	s.caller = caller
	if s.reject != nil {
		return s.reject
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *stubAnchor) OnDepositReceived(_ context.Context, _ types.AccountID, amount *big.Int, msg *anchor.DepositMessage) (*big.Int, error) {
	if s.reject != nil {
		return new(big.Int).Set(amount), s.reject
	}
	s.deposits = append(s.deposits, msg)
	return new(big.Int), nil
}

func post(t *testing.T, stub *stubAnchor, path, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	New(stub, "relayer").Mount(router, "/admin/inbound")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/inbound"+path, strings.NewReader(body)))
	return rr
}

func TestPostMessage(t *testing.T) {
	stub := &stubAnchor{}
	rr := post(t, stub, "/messages", `{"nonce":1,"kind":"EraSwitchPlanned","era":0}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, types.AccountID("relayer"), stub.caller)
	require.Len(t, stub.messages, 1)
	assert.Equal(t, relay.EraSwitchPlanned, stub.messages[0].Event.Kind)

	rr = post(t, stub, "/messages", `{"nonce":2,"kind":"Nope","era":0}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	stub.reject = reverts.ErrUnexpectedNonce
	rr = post(t, stub, "/messages", `{"nonce":9,"kind":"EraSwitchPlanned","era":1}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestPostDeposit(t *testing.T) {
	stub := &stubAnchor{}
	rr := post(t, stub, "/deposits", `{"sender":"alice","amount":"100","message":{"kind":"RegisterValidator","appchainId":"a"}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res DepositResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Zero(t, (*big.Int)(res.Refund).Sign())
	assert.Empty(t, res.Error)
	require.Len(t, stub.deposits, 1)

	rr = post(t, stub, "/deposits", `{"sender":"alice","amount":"100","message":{"kind":"Steal"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, big.NewInt(100), (*big.Int)(res.Refund))
	assert.Contains(t, res.Error, "invalid deposit message")

	stub.reject = reverts.ErrBelowMinimumDeposit
	rr = post(t, stub, "/deposits", `{"sender":"alice","amount":"0x10","message":{"kind":"IncreaseStake"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, big.NewInt(16), (*big.Int)(res.Refund))

	rr = post(t, stub, "/deposits", `{"sender":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
