// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import (
	"context"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/cache"
	"github.com/vechain/anchor/co"
	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/ledger"
	"github.com/vechain/anchor/lifecycle"
	"github.com/vechain/anchor/log"
	"github.com/vechain/anchor/metrics"
	"github.com/vechain/anchor/profiles"
	"github.com/vechain/anchor/relay"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/settlement"
	"github.com/vechain/anchor/snapshot"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/token"
	"github.com/vechain/anchor/types"
	"github.com/vechain/anchor/unbonding"
)

var (
	logger = log.WithContext("pkg", "anchor")

	metricActions        = metrics.LazyLoadCounterVec("actions_total", []string{"action", "result"})
	metricTotalStake     = metrics.LazyLoadGauge("total_stake_next_era")
	metricValidatorCount = metrics.LazyLoadGauge("validator_count_next_era")
	metricPendingCount   = metrics.LazyLoadGauge("pending_transfers")
	metricSnapshotCache  = metrics.LazyLoadGaugeVec("snapshot_cache_lookups", []string{"result"})
)

const defaultSnapshotCacheSize = 64

// Anchor anchors an appchain to the host chain. Calls are processed one at a time;
// each either commits all of its changes or none.
type Anchor struct {
	mu    sync.Mutex
	sctx  *storage.Context
	clock types.Clock

	settings   *settings.Service
	profiles   *profiles.Service
	ledger     *ledger.Service
	unbonding  *unbonding.Service
	snapshots  *snapshot.Service
	settlement *settlement.Service
	lifecycle  *lifecycle.Service
	inbox      *relay.Inbox
	transfers  *transfers
	events     *eventLog

	depositToken  token.Collaborator
	rewardToken   token.Collaborator
	continuations co.Queue[*continuation]
	onProcessed   func(applied int)
	snapshotCache *cache.LRU[types.Era, *snapshot.Info]
}

type Option func(*Anchor)

// WithProcessedHook registers fn to be called after every pass of Run.
func WithProcessedHook(fn func(applied int)) Option {
	return func(a *Anchor) { a.onProcessed = fn }
}

// WithClock overrides the wall clock.
func WithClock(clock types.Clock) Option {
	return func(a *Anchor) { a.clock = clock }
}

// New opens the anchor on store. genesis is stored on first start and ignored afterwards.
func New(store kv.Store, genesis *settings.Genesis, depositToken, rewardToken token.Collaborator, opts ...Option) (*Anchor, error) {
	sctx := storage.NewContext(store)
	snapshots := snapshot.New(sctx)
	snapshotCache, err := cache.NewLRU[types.Era, *snapshot.Info](defaultSnapshotCacheSize)
	if err != nil {
		return nil, err
	}
	a := &Anchor{
		sctx:          sctx,
		clock:         time.Now,
		settings:      settings.New(sctx),
		profiles:      profiles.New(sctx),
		ledger:        ledger.New(sctx),
		unbonding:     unbonding.New(sctx),
		snapshots:     snapshots,
		settlement:    settlement.New(sctx, snapshots),
		lifecycle:     lifecycle.New(sctx),
		inbox:         relay.NewInbox(sctx),
		transfers:     newTransfers(sctx),
		events:        newEventLog(sctx),
		depositToken:  depositToken,
		rewardToken:   rewardToken,
		snapshotCache: snapshotCache,
	}
	for _, opt := range opts {
		opt(a)
	}

	initialized, err := a.settings.Initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		if genesis == nil || genesis.Anchor == nil || genesis.Anchor.Owner.IsZero() {
			return nil, errors.New("genesis settings with an owner are required on first start")
		}
		if err := a.settings.Store(genesis); err != nil {
			return nil, err
		}
		if err := a.sctx.Commit(); err != nil {
			return nil, errors.Wrap(err, "commit genesis")
		}
		logger.Info("anchor initialized", "owner", genesis.Anchor.Owner)
	}
	return a, nil
}

// exec runs fn with the anchor locked. Its changes are committed when it succeeds and
// discarded otherwise. The transfers it returns are dispatched after the lock is released.
func (a *Anchor) exec(ctx context.Context, action string, fn func(now uint64) ([]*PendingTransfer, error)) error {
	a.mu.Lock()
	outbound, err := fn(a.clock.Unix())
	if err == nil {
		err = a.sctx.Commit()
	}
	if err != nil {
		a.sctx.Discard()
	} else {
		a.updateGauges()
	}
	a.mu.Unlock()

	result := "ok"
	if err != nil {
		result = "rejected"
		if !reverts.IsRevertErr(err) {
			result = "failed"
			logger.Error("action failed", "action", action, "err", err)
		} else {
			logger.Debug("action rejected", "action", action, "err", err)
		}
	}
	metricActions().AddWithLabel(1, map[string]string{"action": action, "result": result})
	if err != nil {
		return err
	}

	a.dispatch(ctx, outbound)
	return nil
}

// view runs a read-only fn with the anchor locked.
func (a *Anchor) view(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn()
}

func (a *Anchor) updateGauges() {
	st, err := a.ledger.Status()
	if err != nil {
		return
	}
	metricTotalStake().Set(gaugeAmount(st.TotalStake))
	metricValidatorCount().Set(int64(st.ValidatorCount))
	if n, err := a.transfers.count(); err == nil {
		metricPendingCount().Set(int64(n))
	}
}

// gaugeAmount converts an amount to a gauge value, saturating at the int64 bounds.
func gaugeAmount(v *big.Int) int64 {
	switch {
	case v == nil:
		return 0
	case v.IsInt64():
		return v.Int64()
	case v.Sign() < 0:
		return math.MinInt64
	default:
		return math.MaxInt64
	}
}

// authorize checks caller is one of the accounts picked from the anchor settings.
func (a *Anchor) authorize(caller types.AccountID, roles ...func(*settings.Anchor) types.AccountID) error {
	s, err := a.settings.Anchor()
	if err != nil {
		return err
	}
	if caller.IsZero() {
		return reverts.ErrUnauthorized
	}
	for _, role := range roles {
		if role(s) == caller {
			return nil
		}
	}
	return reverts.ErrUnauthorized
}

func owner(s *settings.Anchor) types.AccountID       { return s.Owner }
func relayer(s *settings.Anchor) types.AccountID     { return s.Relayer }
func priceFeeder(s *settings.Anchor) types.AccountID { return s.TokenPriceMaintainer }

func (a *Anchor) requireState(allowed func(lifecycle.State) bool) error {
	st, err := a.lifecycle.State()
	if err != nil {
		return err
	}
	if !allowed(st) {
		return errors.Wrapf(reverts.ErrInvalidAppchainState, "appchain is %s", st)
	}
	return nil
}
