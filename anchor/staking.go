// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import (
	"context"
	"encoding/json"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/ledger"
	"github.com/vechain/anchor/lifecycle"
	"github.com/vechain/anchor/profiles"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/types"
)

type DepositKind uint8

const (
	RegisterValidator DepositKind = iota + 1
	RegisterDelegator
	IncreaseStake
	IncreaseDelegation
)

var depositKindNames = map[DepositKind]string{
	RegisterValidator:  "RegisterValidator",
	RegisterDelegator:  "RegisterDelegator",
	IncreaseStake:      "IncreaseStake",
	IncreaseDelegation: "IncreaseDelegation",
}

func (k DepositKind) String() string {
	if name, ok := depositKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

func parseDepositKind(s string) (DepositKind, bool) {
	for k, name := range depositKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// DepositMessage tells the anchor what a confirmed deposit is for.
type DepositMessage struct {
	Kind             DepositKind
	AppchainID       string
	CanBeDelegatedTo bool
	ValidatorID      types.AccountID
	Metadata         []profiles.Attribute
}

type jsonDepositMessage struct {
	Kind             string            `json:"kind"`
	AppchainID       string            `json:"appchainId,omitempty"`
	CanBeDelegatedTo bool              `json:"canBeDelegatedTo,omitempty"`
	ValidatorID      string            `json:"validatorId,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// ParseDepositMessage decodes the message attached to a deposit.
func ParseDepositMessage(data []byte) (*DepositMessage, error) {
	var jm jsonDepositMessage
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, errors.Wrap(reverts.ErrInvalidDepositMessage, err.Error())
	}
	kind, ok := parseDepositKind(jm.Kind)
	if !ok {
		return nil, errors.Wrapf(reverts.ErrInvalidDepositMessage, "unknown kind %q", jm.Kind)
	}
	msg := &DepositMessage{
		Kind:             kind,
		AppchainID:       jm.AppchainID,
		CanBeDelegatedTo: jm.CanBeDelegatedTo,
	}
	if jm.ValidatorID != "" {
		id, ok := types.ParseAccountID(jm.ValidatorID)
		if !ok {
			return nil, errors.Wrapf(reverts.ErrInvalidDepositMessage, "invalid validator id %q", jm.ValidatorID)
		}
		msg.ValidatorID = id
	}
	for k, v := range jm.Metadata {
		msg.Metadata = append(msg.Metadata, profiles.Attribute{Key: k, Value: v})
	}
	sort.Slice(msg.Metadata, func(i, j int) bool { return msg.Metadata[i].Key < msg.Metadata[j].Key })
	return msg, msg.validate()
}

func (m *DepositMessage) validate() error {
	switch m.Kind {
	case RegisterValidator:
		if m.AppchainID == "" {
			return errors.Wrap(reverts.ErrInvalidDepositMessage, "appchain id required")
		}
	case RegisterDelegator, IncreaseDelegation:
		if m.ValidatorID.IsZero() {
			return errors.Wrap(reverts.ErrInvalidDepositMessage, "validator id required")
		}
	case IncreaseStake:
	default:
		return errors.Wrapf(reverts.ErrInvalidDepositMessage, "unknown kind %d", m.Kind)
	}
	return nil
}

// OnDepositReceived records a deposit the deposit token has already moved into custody.
// When the deposit is rejected the whole amount is returned as refund along with the reason.
func (a *Anchor) OnDepositReceived(ctx context.Context, sender types.AccountID, amount *big.Int, msg *DepositMessage) (*big.Int, error) {
	err := a.exec(ctx, "deposit", func(now uint64) ([]*PendingTransfer, error) {
		if sender.IsZero() {
			return nil, reverts.ErrUnauthorized
		}
		if msg == nil {
			return nil, errors.Wrap(reverts.ErrInvalidDepositMessage, "missing message")
		}
		if err := msg.validate(); err != nil {
			return nil, err
		}
		if err := a.requireState(lifecycle.State.AllowsStaking); err != nil {
			return nil, err
		}
		p, err := a.settings.Protocol()
		if err != nil {
			return nil, err
		}

		switch msg.Kind {
		case RegisterValidator:
			available, err := a.profiles.IsAppchainIDAvailable(msg.AppchainID, sender)
			if err != nil {
				return nil, err
			}
			if !available {
				return nil, reverts.ErrAppchainIDTaken
			}
			if _, err := a.ledger.RegisterValidator(now, p, sender, msg.AppchainID, amount, msg.CanBeDelegatedTo); err != nil {
				return nil, err
			}
			return nil, a.profiles.Insert(&profiles.Profile{
				ValidatorID:           sender,
				ValidatorIDInAppchain: msg.AppchainID,
				Metadata:              msg.Metadata,
			})
		case RegisterDelegator:
			_, err := a.ledger.RegisterDelegator(now, p, sender, msg.ValidatorID, amount)
			return nil, err
		case IncreaseStake:
			_, err := a.ledger.IncreaseStake(now, sender, amount)
			return nil, err
		case IncreaseDelegation:
			_, err := a.ledger.IncreaseDelegation(now, sender, msg.ValidatorID, amount)
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return types.Copy(amount), err
	}
	return new(big.Int), nil
}

// unbond queues releases until their role's unlock period has passed.
func (a *Anchor) unbond(now uint64, releases []*ledger.Release) error {
	p, err := a.settings.Protocol()
	if err != nil {
		return err
	}
	for _, r := range releases {
		if _, err := a.unbonding.Enqueue(r.Owner, r.Amount, r.Role, now, now+p.UnlockPeriod(r.Role)); err != nil {
			return err
		}
	}
	return nil
}

// DecreaseStake moves part of the caller's validator deposit into the unbonding queue.
func (a *Anchor) DecreaseStake(ctx context.Context, caller types.AccountID, amount *big.Int) error {
	return a.exec(ctx, "decrease_stake", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.requireState(lifecycle.State.AllowsStaking); err != nil {
			return nil, err
		}
		p, err := a.settings.Protocol()
		if err != nil {
			return nil, err
		}
		releases, err := a.ledger.DecreaseStake(now, p, caller, amount)
		if err != nil {
			return nil, err
		}
		return nil, a.unbond(now, releases)
	})
}

// DecreaseDelegation moves part of the caller's delegation to validatorID into the unbonding queue.
func (a *Anchor) DecreaseDelegation(ctx context.Context, caller, validatorID types.AccountID, amount *big.Int) error {
	return a.exec(ctx, "decrease_delegation", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.requireState(lifecycle.State.AllowsStaking); err != nil {
			return nil, err
		}
		releases, err := a.ledger.DecreaseDelegation(now, caller, validatorID, amount)
		if err != nil {
			return nil, err
		}
		return nil, a.unbond(now, releases)
	})
}

// UnbondStake removes the caller as validator. Its delegators are unbonded with it.
// Allowed in every state so positions can be recovered from a broken appchain.
func (a *Anchor) UnbondStake(ctx context.Context, caller types.AccountID) error {
	return a.exec(ctx, "unbond_stake", func(now uint64) ([]*PendingTransfer, error) {
		releases, err := a.ledger.UnbondStake(now, caller)
		if err != nil {
			return nil, err
		}
		return nil, a.unbond(now, releases)
	})
}

// UnbondDelegation removes the caller's whole delegation to validatorID.
func (a *Anchor) UnbondDelegation(ctx context.Context, caller, validatorID types.AccountID) error {
	return a.exec(ctx, "unbond_delegation", func(now uint64) ([]*PendingTransfer, error) {
		releases, err := a.ledger.UnbondDelegation(now, caller, validatorID)
		if err != nil {
			return nil, err
		}
		return nil, a.unbond(now, releases)
	})
}

// WithdrawStake pays out every matured unbonding entry of caller and returns the amount
// requested. Entries stay queued until the transfer is confirmed.
func (a *Anchor) WithdrawStake(ctx context.Context, caller types.AccountID) (*big.Int, error) {
	var total *big.Int
	err := a.exec(ctx, "withdraw", func(now uint64) ([]*PendingTransfer, error) {
		pending, err := a.unbonding.HasPending(caller)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, reverts.ErrWithdrawalInProgress
		}
		matured, err := a.unbonding.Matured(caller, now)
		if err != nil {
			return nil, err
		}
		if len(matured) == 0 {
			return nil, reverts.ErrNothingToWithdraw
		}

		ids := make([]uint64, 0, len(matured))
		total = new(big.Int)
		for _, e := range matured {
			ids = append(ids, e.ID)
			total.Add(total, e.Amount)
		}
		tok, err := a.transfers.Next()
		if err != nil {
			return nil, err
		}
		if err := a.unbonding.MarkPending(caller, ids, tok); err != nil {
			return nil, err
		}
		p := &PendingTransfer{
			Token:     tok,
			Kind:      Withdrawal,
			Receiver:  caller,
			Amount:    total,
			CreatedAt: now,
		}
		if err := a.transfers.add(p); err != nil {
			return nil, err
		}
		return []*PendingTransfer{p}, nil
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// EnableDelegation lets new delegators join the caller.
func (a *Anchor) EnableDelegation(ctx context.Context, caller types.AccountID) error {
	return a.setDelegatable(ctx, caller, true)
}

// DisableDelegation stops new delegators joining the caller. Existing ones stay.
func (a *Anchor) DisableDelegation(ctx context.Context, caller types.AccountID) error {
	return a.setDelegatable(ctx, caller, false)
}

func (a *Anchor) setDelegatable(ctx context.Context, caller types.AccountID, delegatable bool) error {
	return a.exec(ctx, "set_delegatable", func(now uint64) ([]*PendingTransfer, error) {
		if err := a.requireState(lifecycle.State.AllowsStaking); err != nil {
			return nil, err
		}
		return nil, a.ledger.SetDelegatable(now, caller, delegatable)
	})
}

// UpdateProfile replaces the caller's profile metadata. The appchain id is kept.
func (a *Anchor) UpdateProfile(ctx context.Context, caller types.AccountID, metadata []profiles.Attribute) error {
	return a.exec(ctx, "update_profile", func(now uint64) ([]*PendingTransfer, error) {
		v, err := a.ledger.Validator(caller)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, reverts.ErrUnknownValidator
		}
		return nil, a.profiles.Insert(&profiles.Profile{
			ValidatorID:           caller,
			ValidatorIDInAppchain: v.AppchainID,
			Metadata:              metadata,
		})
	})
}
