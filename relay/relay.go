// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package relay

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

var slotNonce = storage.NewSlot("relay-nonce")

// EventKind is the kind of an appchain event.
type EventKind uint8

const (
	EraSwitchPlanned EventKind = iota + 1
	EraRewardConcluded
)

func (k EventKind) String() string {
	switch k {
	case EraSwitchPlanned:
		return "EraSwitchPlanned"
	case EraRewardConcluded:
		return "EraRewardConcluded"
	default:
		return "Unknown"
	}
}

// Event is an authenticated appchain event. Reward is only meaningful for
// EraRewardConcluded; when nil the configured era reward applies.
// Unprofitable validators are named by their appchain ids.
type Event struct {
	Kind                     EventKind
	Era                      types.Era
	Reward                   *big.Int
	UnprofitableValidatorIDs []string
}

// Message is an event delivered by the relay with its sequence number.
type Message struct {
	Nonce uint64
	Event Event
}

// Validate checks the message is well formed.
func (m *Message) Validate() error {
	switch m.Event.Kind {
	case EraSwitchPlanned, EraRewardConcluded:
	default:
		return errors.Wrapf(reverts.ErrInvalidMessage, "unknown event kind %d", m.Event.Kind)
	}
	if m.Event.Reward != nil {
		if err := types.CheckAmount(m.Event.Reward); err != nil && m.Event.Reward.Sign() != 0 {
			return errors.Wrap(reverts.ErrInvalidMessage, err.Error())
		}
	}
	return nil
}

type jsonMessage struct {
	Nonce                    uint64                `json:"nonce"`
	Kind                     string                `json:"kind"`
	Era                      uint64                `json:"era"`
	Reward                   *math.HexOrDecimal256 `json:"reward,omitempty"`
	UnprofitableValidatorIDs []string              `json:"unprofitableValidatorIds,omitempty"`
}

func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(&jsonMessage{
		Nonce:                    m.Nonce,
		Kind:                     m.Event.Kind.String(),
		Era:                      uint64(m.Event.Era),
		Reward:                   (*math.HexOrDecimal256)(m.Event.Reward),
		UnprofitableValidatorIDs: m.Event.UnprofitableValidatorIDs,
	})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var jm jsonMessage
	if err := json.Unmarshal(data, &jm); err != nil {
		return err
	}
	var kind EventKind
	switch jm.Kind {
	case EraSwitchPlanned.String():
		kind = EraSwitchPlanned
	case EraRewardConcluded.String():
		kind = EraRewardConcluded
	default:
		return errors.Errorf("unknown event kind %q", jm.Kind)
	}
	*m = Message{
		Nonce: jm.Nonce,
		Event: Event{
			Kind:                     kind,
			Era:                      types.Era(jm.Era),
			Reward:                   (*big.Int)(jm.Reward),
			UnprofitableValidatorIDs: jm.UnprofitableValidatorIDs,
		},
	}
	return nil
}

// Inbox accepts messages in strict nonce order, starting at 1.
// A message rejected after its nonce check does not consume the nonce: the stream waits
// on it until the relayer delivers an applicable event under the same nonce. The awaited
// nonce is LastNonce()+1, reported as lastNonce by the status endpoint.
type Inbox struct {
	nonce *storage.Raw[uint64]
}

func NewInbox(sctx *storage.Context) *Inbox {
	return &Inbox{nonce: storage.NewRaw[uint64](sctx, slotNonce)}
}

// LastNonce returns the nonce of the last accepted message, zero if none.
func (i *Inbox) LastNonce() (uint64, error) {
	return i.nonce.Get()
}

// Accept consumes the nonce of m. Any nonce but the next one is rejected.
func (i *Inbox) Accept(m *Message) error {
	last, err := i.nonce.Get()
	if err != nil {
		return err
	}
	if m.Nonce != last+1 {
		return errors.Wrapf(reverts.ErrUnexpectedNonce, "want %d, got %d", last+1, m.Nonce)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	return i.nonce.Set(m.Nonce)
}
