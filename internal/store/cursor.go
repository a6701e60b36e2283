package store

import (
	"context"
	"sync/atomic"

	"github.com/aryankumar/netdiscover/internal/util"
)

// Cursor is a worker's write handle on the shared store
type Cursor struct {
	store  *Store
	closed atomic.Bool
}

// Insert writes records in a single transaction. The store mutex is held
// for the whole begin/insert/commit sequence, so transactions from
// different cursors never interleave.
func (c *Cursor) Insert(ctx context.Context, records ...Record) error {
	if c.closed.Load() {
		return util.ErrStoreClosed
	}
	if len(records) == 0 {
		return nil
	}
	return c.store.insert(ctx, records)
}

// Close releases the cursor. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.store.cursors.Add(-1)
	}
	return nil
}
