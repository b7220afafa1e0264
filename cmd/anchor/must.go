// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/api"
	"github.com/vechain/anchor/cmd/anchor/httpserver"
	"github.com/vechain/anchor/health"
	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/log"
	"github.com/vechain/anchor/metrics"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/token"
	"github.com/vechain/anchor/types"
)

const transferQueueSize = 1024

func initLogger(lvl int, jsonLogs bool) *slog.LevelVar {
	logLevel := log.FromLegacyLevel(lvl)
	output := io.Writer(os.Stdout)
	useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"

	level := new(slog.LevelVar)
	level.Set(logLevel)

	var handler slog.Handler
	if jsonLogs {
		handler = log.JSONHandlerWithLevel(output, level)
	} else {
		handler = log.NewTerminalHandlerWithLevel(output, level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return level
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		return 16
	}
	return sizeMB
}

func openStore(ctx *cli.Context, dataDir string) (kv.Store, error) {
	opts := kv.Options{
		CacheSize:              normalizeCacheSize(ctx.Int(cacheFlag.Name)),
		OpenFilesCacheCapacity: 500,
	}
	logger.Debug("cache size(MB)", "size", opts.CacheSize)

	switch engine := ctx.String(dbEngineFlag.Name); engine {
	case "leveldb":
		dir := filepath.Join(dataDir, "anchor.db")
		db, err := kv.NewLevelDB(dir, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "open leveldb [%v]", dir)
		}
		return db, nil
	case "pebble":
		dir := filepath.Join(dataDir, "anchor.pebble")
		db, err := kv.NewPebble(dir, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "open pebble [%v]", dir)
		}
		return db, nil
	default:
		return nil, errors.Errorf("unknown db engine %q", engine)
	}
}

// loadGenesis returns the settings applied when the store is empty.
func loadGenesis(ctx *cli.Context) (*settings.Genesis, error) {
	if path := ctx.String(settingsFlag.Name); path != "" {
		return settings.LoadFile(path)
	}
	if s := ctx.String(ownerFlag.Name); s != "" {
		owner, ok := types.ParseAccountID(s)
		if !ok {
			return nil, errors.Errorf("invalid owner account %q", s)
		}
		return settings.DefaultGenesis(owner), nil
	}
	return nil, nil
}

// actingRelayer picks the account the node relays messages and drives settlements as.
func actingRelayer(ctx *cli.Context, a *anchor.Anchor) (types.AccountID, error) {
	if s := ctx.String(relayerFlag.Name); s != "" {
		relayer, ok := types.ParseAccountID(s)
		if !ok {
			return "", errors.Errorf("invalid relayer account %q", s)
		}
		return relayer, nil
	}
	g, err := a.Settings()
	if err != nil {
		return "", err
	}
	if !g.Anchor.Relayer.IsZero() {
		return g.Anchor.Relayer, nil
	}
	return g.Anchor.Owner, nil
}

func newHTTPTokens(ctx *cli.Context) (*token.Pooled, *token.Pooled, error) {
	depositURL := ctx.String(depositTokenURLFlag.Name)
	rewardURL := ctx.String(rewardTokenURLFlag.Name)
	if depositURL == "" || rewardURL == "" {
		return nil, nil, errors.Errorf("-%s and -%s are required", depositTokenURLFlag.Name, rewardTokenURLFlag.Name)
	}
	workers := ctx.Int(transferWorkersFlag.Name)
	return token.NewPooled(token.NewHTTPClient(depositURL), workers, transferQueueSize),
		token.NewPooled(token.NewHTTPClient(rewardURL), workers, transferQueueSize),
		nil
}

type servers struct {
	apiURL, adminURL, metricsURL string
	stops                        []func()
}

func (s *servers) Stop() {
	for i := len(s.stops) - 1; i >= 0; i-- {
		s.stops[i]()
	}
}

func startServers(ctx *cli.Context, a *anchor.Anchor, h *health.Health, logLevel *slog.LevelVar, relayer types.AccountID) (*servers, error) {
	srvs := &servers{}

	apiURL, stop, err := httpserver.StartAPIServer(
		ctx.String(apiAddrFlag.Name),
		a,
		api.Options{
			AllowedOrigins:  ctx.String(apiCorsFlag.Name),
			PageSize:        ctx.Uint64(apiPageSizeFlag.Name),
			PprofOn:         ctx.Bool(pprofFlag.Name),
			EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
			EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		},
		time.Duration(ctx.Uint64(apiTimeoutFlag.Name))*time.Millisecond,
	)
	if err != nil {
		return nil, err
	}
	srvs.apiURL = apiURL
	srvs.stops = append(srvs.stops, func() { logger.Info("stopping API server..."); stop() })

	if ctx.Bool(enableAdminFlag.Name) {
		adminURL, stop, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, h, a, relayer)
		if err != nil {
			srvs.Stop()
			return nil, err
		}
		srvs.adminURL = adminURL
		srvs.stops = append(srvs.stops, func() { logger.Info("stopping admin server..."); stop() })
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metricsURL, stop, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			srvs.Stop()
			return nil, err
		}
		srvs.metricsURL = metricsURL
		srvs.stops = append(srvs.stops, func() { logger.Info("stopping metrics server..."); stop() })
	}
	return srvs, nil
}

func printStartupMessage(a *anchor.Anchor, dataDir string, relayer types.AccountID, srvs *servers) {
	st, err := a.Status()
	if err != nil {
		logger.Warn("failed to read status", "err", err)
		return
	}
	g, err := a.Settings()
	if err != nil {
		logger.Warn("failed to read settings", "err", err)
		return
	}

	optional := func(url string) string {
		if url == "" {
			return "Disabled"
		}
		return url
	}
	latest := "none"
	if st.LatestEra != nil {
		latest = fmt.Sprint(*st.LatestEra)
	}

	fmt.Printf(`Starting %v
    Appchain     [ %v ]
    Owner        [ %v ]
    Relayer      [ %v ]
    Latest era   [ %v ]
    Validators   [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Admin portal [ %v ]
    Metrics      [ %v ]
`,
		strings.TrimSpace(fullVersion()),
		st.State,
		g.Anchor.Owner,
		relayer,
		latest,
		st.ValidatorCount,
		dataDir,
		srvs.apiURL,
		optional(srvs.adminURL),
		optional(srvs.metricsURL),
	)
}

func initMetrics(ctx *cli.Context) {
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
}
