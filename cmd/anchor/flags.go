// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the anchor database",
	}
	dbEngineFlag = cli.StringFlag{
		Name:  "db-engine",
		Value: "leveldb",
		Usage: "storage engine (leveldb|pebble)",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Usage: "megabytes of ram allocated to the database cache",
		Value: 256,
	}
	settingsFlag = cli.StringFlag{
		Name:  "settings",
		Usage: "path to the yaml settings applied on first start",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "owner account used when no settings file is given",
	}
	relayerFlag = cli.StringFlag{
		Name:  "relayer",
		Usage: "account the inbound relay endpoint and the settlement driver act as (defaults to the configured relayer)",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8680",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.Uint64Flag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds",
	}
	apiPageSizeFlag = cli.Uint64Flag{
		Name:  "api-page-size",
		Value: 100,
		Usage: "limit the number of entries returned by paged endpoints",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "enables admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address",
	}
	settleScheduleFlag = cli.StringFlag{
		Name:  "settle-schedule",
		Value: "@every 10s",
		Usage: "cron schedule on which unfinished era settlements are resumed",
	}
	depositTokenURLFlag = cli.StringFlag{
		Name:  "deposit-token-url",
		Usage: "endpoint of the deposit token bridge receiving withdrawals",
	}
	rewardTokenURLFlag = cli.StringFlag{
		Name:  "reward-token-url",
		Usage: "endpoint of the reward token bridge receiving payouts",
	}
	transferWorkersFlag = cli.IntFlag{
		Name:  "transfer-workers",
		Value: 8,
		Usage: "maximum number of concurrent outbound token transfers",
	}

	// solo mode only
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "blockchain data storage option, if set data will be saved to disk",
	}
	eraScheduleFlag = cli.StringFlag{
		Name:  "era-schedule",
		Value: "@every 1m",
		Usage: "cron schedule on which the simulated appchain switches era",
	}
)
