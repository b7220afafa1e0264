// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
)

var _ Store = (*Pebble)(nil)

// Pebble wraps a pebble db.
type Pebble struct {
	db *pebble.DB
}

// NewPebble opens (or creates) a pebble db at path.
func NewPebble(path string, opts Options) (*Pebble, error) {
	return openPebble(path, &pebble.Options{
		Cache:        pebble.NewCache(int64(max(opts.CacheSize, 16)) << 20),
		MaxOpenFiles: max(opts.OpenFilesCacheCapacity, 16),
	})
}

// NewPebbleMem creates a pebble db backed by memory.
func NewPebbleMem() (*Pebble, error) {
	return openPebble("", &pebble.Options{FS: vfs.NewMem()})
}

func openPebble(path string, opts *pebble.Options) (*Pebble, error) {
	db, err := pebble.Open(path, opts)
	if opts.Cache != nil {
		// the db holds its own reference
		opts.Cache.Unref()
	}
	if err != nil {
		return nil, errors.Wrap(err, "open pebble db")
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

func (p *Pebble) Get(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

func (p *Pebble) Has(key []byte) (bool, error) {
	_, err := p.Get(key)
	if err != nil {
		if p.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *Pebble) Put(key, val []byte) error {
	return p.db.Set(key, val, pebble.Sync)
}

func (p *Pebble) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

func (p *Pebble) Close() error {
	return p.db.Close()
}

func (p *Pebble) NewBatch() Batch {
	return &pebbleBatch{p.db.NewBatch()}
}

type pebbleBatch struct {
	batch *pebble.Batch
}

func (b *pebbleBatch) Put(key, val []byte) error {
	return b.batch.Set(key, val, nil)
}

func (b *pebbleBatch) Delete(key []byte) error {
	return b.batch.Delete(key, nil)
}

func (b *pebbleBatch) Len() int {
	return int(b.batch.Count())
}

func (b *pebbleBatch) Write() error {
	defer b.batch.Close()
	return b.batch.Commit(pebble.Sync)
}
