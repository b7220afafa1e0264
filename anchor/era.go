// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/lifecycle"
	"github.com/vechain/anchor/relay"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settlement"
	"github.com/vechain/anchor/types"
)

// ApplyMessage applies an appchain event delivered by the relayer. Messages must arrive in
// nonce order; a rejected message leaves its nonce unconsumed. To unblock the stream the
// relayer re-sends that nonce with the event the anchor expects, e.g. the next era after a
// duplicate switch. Nothing is applied while the appchain is Staging or Broken.
func (a *Anchor) ApplyMessage(ctx context.Context, caller types.AccountID, msg *relay.Message) error {
	return a.exec(ctx, "apply_message", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, relayer, owner); err != nil {
			return nil, err
		}
		if err := a.inbox.Accept(msg); err != nil {
			return nil, err
		}
		if err := a.requireState(lifecycle.State.AllowsEraEvents); err != nil {
			return nil, err
		}

		switch msg.Event.Kind {
		case relay.EraSwitchPlanned:
			return nil, a.switchEra(now, msg.Event.Era)
		case relay.EraRewardConcluded:
			return nil, a.concludeReward(now, &msg.Event)
		}
		return nil, errors.Wrapf(reverts.ErrInvalidMessage, "unknown event kind %d", msg.Event.Kind)
	})
}

func (a *Anchor) switchEra(now uint64, era types.Era) error {
	h, err := a.snapshots.Create(era, now, a.ledger)
	if err != nil {
		return err
	}
	if err := a.settlement.Init(era); err != nil {
		return err
	}
	logger.Info("era switched", "era", era, "validators", h.ValidatorCount, "stake", h.TotalStake)
	return a.events.append(now, EraSwitched, era, fmt.Sprintf("validators=%d stake=%s", h.ValidatorCount, h.TotalStake))
}

func (a *Anchor) concludeReward(now uint64, ev *relay.Event) error {
	reward := ev.Reward
	if reward == nil {
		app, err := a.settings.Appchain()
		if err != nil {
			return err
		}
		if app.EraReward == nil {
			return reverts.ErrMissingEraReward
		}
		reward = app.EraReward
	}

	// ids name validators as they were when the era was snapshotted
	excluded := make([]types.AccountID, 0, len(ev.UnprofitableValidatorIDs))
	for _, appchainID := range ev.UnprofitableValidatorIDs {
		v, err := a.snapshots.ValidatorByAppchainID(ev.Era, appchainID)
		if err != nil {
			return err
		}
		if v == nil {
			logger.Warn("unknown unprofitable validator", "era", ev.Era, "appchainID", appchainID)
			continue
		}
		excluded = append(excluded, v.ID)
	}

	p, err := a.settings.Protocol()
	if err != nil {
		return err
	}
	s, err := a.settings.Anchor()
	if err != nil {
		return err
	}
	st, err := a.settlement.Conclude(ev.Era, reward, excluded, p.CommissionBps, s.TreasuryAccount())
	if err != nil {
		return err
	}
	logger.Info("era reward concluded", "era", ev.Era, "reward", reward, "excluded", len(excluded), "eligible", st.EligibleStake)
	return a.events.append(now, RewardConcluded, ev.Era, fmt.Sprintf("reward=%s excluded=%d", reward, len(excluded)))
}

// ResumeSettlement runs one bounded step of era's reward settlement and reports whether
// the era is fully settled. Payouts of the step are dispatched after it commits.
func (a *Anchor) ResumeSettlement(ctx context.Context, caller types.AccountID, era types.Era) (bool, error) {
	var done bool
	err := a.exec(ctx, "resume_settlement", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.authorize(caller, relayer, owner); err != nil {
			return nil, err
		}
		before, err := a.settlement.Status(era)
		if err != nil {
			return nil, err
		}
		p, err := a.settings.Protocol()
		if err != nil {
			return nil, err
		}

		var dispatches []*settlement.Dispatch
		done, dispatches, err = a.settlement.Resume(era, p.MaxPayoutsPerStep, a.transfers)
		if err != nil {
			return nil, err
		}

		outbound := make([]*PendingTransfer, 0, len(dispatches))
		for _, d := range dispatches {
			pt := &PendingTransfer{
				Token:     d.Token,
				Kind:      Payout,
				Receiver:  d.Recipient,
				Amount:    d.Amount,
				Era:       d.Era,
				Key:       d.Key,
				CreatedAt: now,
			}
			if err := a.transfers.add(pt); err != nil {
				return nil, err
			}
			outbound = append(outbound, pt)
		}
		if done && before != nil && before.Phase != settlement.Completed {
			logger.Info("era settled", "era", era)
			if err := a.events.append(now, SettlementCompleted, era, ""); err != nil {
				return nil, err
			}
		}
		return outbound, nil
	})
	return done, err
}
