// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engines(t *testing.T) map[string]Store {
	lvl, err := NewMem()
	require.NoError(t, err)
	peb, err := NewPebbleMem()
	require.NoError(t, err)

	persistent, err := NewLevelDB(t.TempDir(), Options{})
	require.NoError(t, err)

	stores := map[string]Store{"leveldb-mem": lvl, "pebble-mem": peb, "leveldb-file": persistent}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore(t *testing.T) {
	for name, st := range engines(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get([]byte("missing"))
			assert.True(t, st.IsNotFound(err))

			has, err := st.Has([]byte("missing"))
			assert.NoError(t, err)
			assert.False(t, has)

			require.NoError(t, st.Put([]byte("k"), []byte("v")))
			val, err := st.Get([]byte("k"))
			assert.NoError(t, err)
			assert.Equal(t, []byte("v"), val)

			require.NoError(t, st.Delete([]byte("k")))
			_, err = st.Get([]byte("k"))
			assert.True(t, st.IsNotFound(err))
		})
	}
}

func TestBatch(t *testing.T) {
	for name, st := range engines(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Put([]byte("gone"), []byte("x")))

			b := st.NewBatch()
			assert.NoError(t, b.Put([]byte("a"), []byte("1")))
			assert.NoError(t, b.Put([]byte("b"), []byte("2")))
			assert.NoError(t, b.Delete([]byte("gone")))
			assert.Equal(t, 3, b.Len())

			has, _ := st.Has([]byte("a"))
			assert.False(t, has, "batch must not be visible before write")

			require.NoError(t, b.Write())
			val, err := st.Get([]byte("b"))
			assert.NoError(t, err)
			assert.Equal(t, []byte("2"), val)
			has, _ = st.Has([]byte("gone"))
			assert.False(t, has)
		})
	}
}

func TestPersistentReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebble(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, st.Put([]byte("k"), []byte("v")))
	require.NoError(t, st.Close())

	st, err = NewPebble(dir, Options{})
	require.NoError(t, err)
	defer st.Close()
	val, err := st.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}
