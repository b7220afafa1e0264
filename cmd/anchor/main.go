// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/cmd/anchor/solo"
	"github.com/vechain/anchor/health"
	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/log"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/token"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")

	defaultFlags = []cli.Flag{
		dataDirFlag,
		dbEngineFlag,
		cacheFlag,
		settingsFlag,
		ownerFlag,
		relayerFlag,
		depositTokenURLFlag,
		rewardTokenURLFlag,
		transferWorkersFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiTimeoutFlag,
		apiPageSizeFlag,
		enableAPILogsFlag,
		pprofFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		enableAdminFlag,
		adminAddrFlag,
		settleScheduleFlag,
	}
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Anchor",
		Usage:     "Anchor of an appchain on VeChain Thor",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags:     defaultFlags,
		Action:    defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "anchor with a simulated appchain and in-memory tokens for test & dev",
				Flags: []cli.Flag{
					dataDirFlag,
					dbEngineFlag,
					cacheFlag,
					persistFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiPageSizeFlag,
					enableAPILogsFlag,
					pprofFlag,
					verbosityFlag,
					jsonLogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
					settleScheduleFlag,
					eraScheduleFlag,
					transferWorkersFlag,
				},
				Action: soloAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Fatal:", err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitCtx, cancel := handleExitSignal()
	defer cancel()

	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx.Int(verbosityFlag.Name), ctx.Bool(jsonLogsFlag.Name))
	initMetrics(ctx)

	gene, err := loadGenesis(ctx)
	if err != nil {
		return err
	}
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing database..."); store.Close() }()

	depositToken, rewardToken, err := newHTTPTokens(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("waiting for transfers..."); depositToken.Stop(); rewardToken.Stop() }()

	return run(exitCtx, ctx, &node{
		store:        store,
		genesis:      gene,
		dataDir:      dataDir,
		depositToken: depositToken,
		rewardToken:  rewardToken,
		logLevel:     logLevel,
	})
}

func soloAction(ctx *cli.Context) error {
	exitCtx, cancel := handleExitSignal()
	defer cancel()

	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx.Int(verbosityFlag.Name), ctx.Bool(jsonLogsFlag.Name))
	initMetrics(ctx)

	var (
		store   kv.Store
		dataDir string
		err     error
	)
	if ctx.Bool(persistFlag.Name) {
		if dataDir, err = makeDataDir(ctx); err != nil {
			return err
		}
		if store, err = openStore(ctx, dataDir); err != nil {
			return err
		}
	} else {
		dataDir = "Memory"
		if store, err = kv.NewMem(); err != nil {
			return err
		}
	}
	defer func() { logger.Info("closing database..."); store.Close() }()

	workers := ctx.Int(transferWorkersFlag.Name)
	depositToken := token.NewPooled(token.NewMemLedger("deposit"), workers, transferQueueSize)
	rewardToken := token.NewPooled(token.NewMemLedger("reward"), workers, transferQueueSize)
	defer func() { depositToken.Stop(); rewardToken.Stop() }()

	return run(exitCtx, ctx, &node{
		store:        store,
		genesis:      solo.Genesis(),
		dataDir:      dataDir,
		depositToken: depositToken,
		rewardToken:  rewardToken,
		logLevel:     logLevel,
		solo:         true,
	})
}

type node struct {
	store        kv.Store
	genesis      *settings.Genesis
	dataDir      string
	depositToken token.Collaborator
	rewardToken  token.Collaborator
	logLevel     *slog.LevelVar
	solo         bool
}

// run serves the anchor until exitCtx is done: the continuation loop, the http servers and
// the scheduled jobs share one lifetime and the first failure stops them all.
func run(exitCtx context.Context, ctx *cli.Context, n *node) error {
	var h *health.Health
	a, err := anchor.New(n.store, n.genesis, n.depositToken, n.rewardToken,
		anchor.WithProcessedHook(func(int) { h.Processed() }))
	if err != nil {
		return err
	}
	h = health.New(a, time.Now)

	relayer, err := actingRelayer(ctx, a)
	if err != nil {
		return err
	}

	if recovered, err := a.Recover(exitCtx); err != nil {
		return errors.Wrap(err, "recover pending transfers")
	} else if recovered > 0 {
		logger.Info("pending transfers re-dispatched", "count", recovered)
	}

	srvs, err := startServers(ctx, a, h, n.logLevel, relayer)
	if err != nil {
		return err
	}
	defer srvs.Stop()

	group, groupCtx := errgroup.WithContext(exitCtx)

	jobs := []job{{
		name: "settle",
		spec: ctx.String(settleScheduleFlag.Name),
		run:  func(jctx context.Context) error { return settleActiveEras(jctx, a, relayer) },
	}}
	if n.solo {
		s := solo.New(a)
		jobs = append(jobs, job{
			name: "solo-era",
			spec: ctx.String(eraScheduleFlag.Name),
			run:  s.Tick,
		})
	}
	scheduler, err := newScheduler(groupCtx, jobs...)
	if err != nil {
		return errors.Wrap(err, "schedule jobs")
	}

	printStartupMessage(a, n.dataDir, relayer, srvs)

	group.Go(func() error {
		if err := a.Run(groupCtx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		scheduler.Start()
		<-groupCtx.Done()
		<-scheduler.Stop().Done()
		return nil
	})
	return group.Wait()
}
