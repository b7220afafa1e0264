// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package relay

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/storage"
)

func newInbox(t *testing.T) *Inbox {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewInbox(storage.NewContext(store))
}

func TestInbox_Ordering(t *testing.T) {
	in := newInbox(t)
	msg := func(nonce uint64) *Message {
		return &Message{Nonce: nonce, Event: Event{Kind: EraSwitchPlanned}}
	}

	assert.ErrorIs(t, in.Accept(msg(0)), reverts.ErrUnexpectedNonce)
	assert.ErrorIs(t, in.Accept(msg(2)), reverts.ErrUnexpectedNonce)
	require.NoError(t, in.Accept(msg(1)))
	assert.ErrorIs(t, in.Accept(msg(1)), reverts.ErrUnexpectedNonce, "replay")
	require.NoError(t, in.Accept(msg(2)))

	last, err := in.LastNonce()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)
}

func TestInbox_InvalidMessage(t *testing.T) {
	in := newInbox(t)

	assert.ErrorIs(t, in.Accept(&Message{Nonce: 1}), reverts.ErrInvalidMessage)
	assert.ErrorIs(t, in.Accept(&Message{Nonce: 1, Event: Event{Kind: EraRewardConcluded, Reward: big.NewInt(-1)}}),
		reverts.ErrInvalidMessage)

	last, err := in.LastNonce()
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestMessage_JSON(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{
		"nonce": 3,
		"kind": "EraRewardConcluded",
		"era": 1,
		"reward": "0x3e8",
		"unprofitableValidatorIds": ["0xaa"]
	}`), &m))
	assert.Equal(t, uint64(3), m.Nonce)
	assert.Equal(t, EraRewardConcluded, m.Event.Kind)
	assert.Equal(t, big.NewInt(1000), m.Event.Reward)
	assert.Equal(t, []string{"0xaa"}, m.Event.UnprofitableValidatorIDs)

	data, err := json.Marshal(&m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nonce":3,"kind":"EraRewardConcluded","era":1,"reward":"0x3e8","unprofitableValidatorIds":["0xaa"]}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"Nope"}`), &m))
}
