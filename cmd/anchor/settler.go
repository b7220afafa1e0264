// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/log"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/types"
)

const jobTimeout = 30 * time.Second

// cronLogger routes scheduler logs into the node logger.
type cronLogger struct {
	logger log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}

// Settler is the subset of the anchor used to drive settlements.
type Settler interface {
	Status() (*anchor.Status, error)
	ResumeSettlement(ctx context.Context, caller types.AccountID, era types.Era) (bool, error)
}

// settleActiveEras resumes each era still settling, oldest first, one step per era.
func settleActiveEras(ctx context.Context, a Settler, relayer types.AccountID) error {
	st, err := a.Status()
	if err != nil {
		return err
	}
	for _, era := range st.ActiveSettlements {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := a.ResumeSettlement(ctx, relayer, era)
		if err != nil {
			if kind, ok := reverts.KindOf(err); ok && kind == reverts.KindConcurrency {
				logger.Debug("settlement step skipped", "era", era, "err", err)
				continue
			}
			return err
		}
		if done {
			logger.Info("era settled", "era", era)
		} else {
			logger.Debug("settlement step done", "era", era)
		}
	}
	return nil
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) error
}

// newScheduler registers jobs on a cron scheduler. Each run is bounded by jobTimeout and a
// run still going when its next tick fires is skipped.
func newScheduler(ctx context.Context, jobs ...job) (*cron.Cron, error) {
	cl := cronLogger{logger: log.WithContext("pkg", "cron")}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	for _, j := range jobs {
		if _, err := c.AddFunc(j.spec, func() {
			rctx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if err := j.run(rctx); err != nil {
				logger.Warn("job failed", "job", j.name, "err", err)
			}
		}); err != nil {
			return nil, err
		}
	}
	return c, nil
}
