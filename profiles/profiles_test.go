// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/anchor/kv"
	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/storage"
	"github.com/vechain/anchor/types"
)

func newService(t *testing.T) *Service {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(storage.NewContext(store))
}

func TestService_InsertAndGet(t *testing.T) {
	s := newService(t)

	p, err := s.Get("alice")
	require.NoError(t, err)
	assert.Nil(t, p)
	p, err = s.GetByAppchainID("0xaa")
	require.NoError(t, err)
	assert.Nil(t, p)

	alice := &Profile{ValidatorID: "alice", ValidatorIDInAppchain: "0xaa", Metadata: []Attribute{{"name", "Alice"}}}
	require.NoError(t, s.Insert(alice))

	got, err := s.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	got, err = s.GetByAppchainID("0xaa")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestService_UpsertMovesAppchainID(t *testing.T) {
	s := newService(t)

	require.NoError(t, s.Insert(&Profile{ValidatorID: "alice", ValidatorIDInAppchain: "0xaa"}))
	require.NoError(t, s.Insert(&Profile{ValidatorID: "alice", ValidatorIDInAppchain: "0xbb"}))

	p, err := s.GetByAppchainID("0xaa")
	require.NoError(t, err)
	assert.Nil(t, p, "old appchain id must not dangle")

	p, err = s.GetByAppchainID("0xbb")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "0xbb", p.ValidatorIDInAppchain)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	ok, err := s.IsAppchainIDAvailable("0xaa", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_AppchainIDTaken(t *testing.T) {
	s := newService(t)

	require.NoError(t, s.Insert(&Profile{ValidatorID: "alice", ValidatorIDInAppchain: "0xaa"}))
	assert.ErrorIs(t, s.Insert(&Profile{ValidatorID: "bob", ValidatorIDInAppchain: "0xaa"}), reverts.ErrAppchainIDTaken)
	assert.ErrorIs(t, s.Insert(&Profile{ValidatorID: "bob"}), reverts.ErrInvalidAppchainID)

	p, err := s.Get("bob")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestService_List(t *testing.T) {
	s := newService(t)
	for _, id := range []string{"a1", "b2", "c3"} {
		require.NoError(t, s.Insert(&Profile{ValidatorID: types.AccountID(id), ValidatorIDInAppchain: "0x" + id}))
	}

	all, err := s.List(0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := s.List(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "0xb2", page[0].ValidatorIDInAppchain)
}
