// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/pkg/errors"

	"github.com/vechain/anchor/kv"
)

type staged struct {
	val     []byte
	deleted bool
}

// Context stages writes on top of a kv store. Reads observe staged writes.
// Commit flushes all staged writes in one batch, Discard drops them, so a failed
// operation never leaves a partial change behind.
type Context struct {
	store kv.Store
	stage map[string]staged
}

// NewContext creates a context over the store.
func NewContext(store kv.Store) *Context {
	return &Context{store: store, stage: make(map[string]staged)}
}

func (c *Context) get(key []byte) ([]byte, error) {
	if s, ok := c.stage[string(key)]; ok {
		if s.deleted {
			return nil, nil
		}
		return s.val, nil
	}
	val, err := c.store.Get(key)
	if err != nil {
		if c.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "storage get")
	}
	return val, nil
}

func (c *Context) put(key, val []byte) {
	c.stage[string(key)] = staged{val: val}
}

func (c *Context) delete(key []byte) {
	c.stage[string(key)] = staged{deleted: true}
}

// Dirty returns the number of staged writes.
func (c *Context) Dirty() int {
	return len(c.stage)
}

// Commit writes all staged changes atomically.
func (c *Context) Commit() error {
	if len(c.stage) == 0 {
		return nil
	}
	batch := c.store.NewBatch()
	for k, s := range c.stage {
		var err error
		if s.deleted {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), s.val)
		}
		if err != nil {
			return errors.Wrap(err, "stage batch")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	c.stage = make(map[string]staged)
	return nil
}

// Discard drops all staged changes.
func (c *Context) Discard() {
	if len(c.stage) > 0 {
		c.stage = make(map[string]staged)
	}
}
