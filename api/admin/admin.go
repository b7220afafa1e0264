// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/anchor/api/admin/inbound"
	"github.com/vechain/anchor/api/admin/loglevel"
	"github.com/vechain/anchor/health"
	"github.com/vechain/anchor/types"

	healthAPI "github.com/vechain/anchor/api/admin/health"
)

// New returns the handler of the admin server. The inbound endpoints act as relayer.
func New(logLevel *slog.LevelVar, health *health.Health, anchor inbound.Anchor, relayer types.AccountID) http.HandlerFunc {
	router := mux.NewRouter()

	loglevel.New(logLevel).Mount(router, "/admin/loglevel")
	healthAPI.NewAPI(health).Mount(router, "/admin/health")
	inbound.New(anchor, relayer).Mount(router, "/admin/inbound")

	handler := handlers.CompressHandler(router)

	return handler.ServeHTTP
}
