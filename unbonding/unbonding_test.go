// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package unbonding

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

func newQueue(t *testing.T) *Service {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(storage.NewContext(store))
}

func ids(entries []*Entry) []uint64 {
	out := make([]uint64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestQueue_Matured(t *testing.T) {
	q := newQueue(t)

	_, err := q.Enqueue("alice", big.NewInt(0), types.RoleValidator, 0, 10)
	assert.Error(t, err)

	e1, err := q.Enqueue("alice", big.NewInt(10), types.RoleValidator, 0, 100)
	require.NoError(t, err)
	e2, err := q.Enqueue("alice", big.NewInt(20), types.RoleDelegator, 0, 200)
	require.NoError(t, err)
	_, err = q.Enqueue("bob", big.NewInt(5), types.RoleDelegator, 0, 50)
	require.NoError(t, err)

	m, err := q.Matured("alice", 99)
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = q.Matured("alice", 100)
	require.NoError(t, err)
	assert.Equal(t, []uint64{e1.ID}, ids(m))

	m, err = q.Matured("alice", 1000)
	require.NoError(t, err)
	assert.Equal(t, []uint64{e1.ID, e2.ID}, ids(m))

	total, err := q.Total()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(35), total)

	owners, err := q.Owners()
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.AccountID{"alice", "bob"}, owners)
}

func TestQueue_SettleRemovesOnlyCovered(t *testing.T) {
	q := newQueue(t)

	e1, err := q.Enqueue("alice", big.NewInt(10), types.RoleValidator, 0, 100)
	require.NoError(t, err)
	e2, err := q.Enqueue("alice", big.NewInt(20), types.RoleValidator, 0, 100)
	require.NoError(t, err)
	e3, err := q.Enqueue("alice", big.NewInt(40), types.RoleValidator, 0, 500)
	require.NoError(t, err)

	require.NoError(t, q.MarkPending("alice", []uint64{e1.ID, e2.ID}, 7))
	pending, err := q.HasPending("alice")
	require.NoError(t, err)
	assert.True(t, pending)

	m, err := q.Matured("alice", 1000)
	require.NoError(t, err)
	assert.Equal(t, []uint64{e3.ID}, ids(m), "pending entries are not matured candidates")

	sum, err := q.Settle("alice", 7)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), sum)

	left, err := q.Entries("alice")
	require.NoError(t, err)
	assert.Equal(t, []uint64{e3.ID}, ids(left))

	total, err := q.Total()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(40), total)
}

func TestQueue_ReleaseKeepsEntries(t *testing.T) {
	q := newQueue(t)

	e1, err := q.Enqueue("alice", big.NewInt(10), types.RoleValidator, 0, 100)
	require.NoError(t, err)
	require.NoError(t, q.MarkPending("alice", []uint64{e1.ID}, 3))
	require.NoError(t, q.Release("alice", 3))

	pending, err := q.HasPending("alice")
	require.NoError(t, err)
	assert.False(t, pending)

	m, err := q.Matured("alice", 100)
	require.NoError(t, err)
	assert.Equal(t, []uint64{e1.ID}, ids(m))

	sum, err := q.Settle("alice", 3)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Sign())

	_, err = q.Settle("alice", 0)
	assert.Error(t, err)
}
