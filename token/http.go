// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
)

// HTTPClient forwards transfers to a token bridge over HTTP.
// Each request is posted as JSON to the endpoint; any 2xx status is a success.
type HTTPClient struct {
	url string
	c   *http.Client
}

// NewHTTPClient creates a client posting to url.
func NewHTTPClient(url string) *HTTPClient {
	return NewHTTPClientWithHTTP(url, http.DefaultClient)
}

func NewHTTPClientWithHTTP(url string, c *http.Client) *HTTPClient {
	return &HTTPClient{url: url, c: c}
}

type jsonRequest struct {
	Reference string                `json:"reference"`
	Receiver  string                `json:"receiver"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
}

func (h *HTTPClient) Transfer(ctx context.Context, req *Request, done func(error)) {
	done(h.post(ctx, req))
}

func (h *HTTPClient) post(ctx context.Context, req *Request) error {
	body, err := json.Marshal(&jsonRequest{
		Reference: strconv.FormatUint(req.Reference, 10),
		Receiver:  req.Receiver.String(),
		Amount:    (*math.HexOrDecimal256)(req.Amount),
	})
	if err != nil {
		return errors.Wrap(err, "encode transfer")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "post transfer")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Wrap(ErrRejected, fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}
	return nil
}
