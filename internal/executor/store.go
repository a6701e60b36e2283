package executor

import (
	"context"

	"github.com/aryankumar/netdiscover/internal/store"
)

// Store hands out per-worker cursors and is closed once by the pool
type Store interface {
	Cursor(ctx context.Context) (Cursor, error)
	Close() error
}

// Cursor is a worker's private write handle
type Cursor interface {
	Insert(ctx context.Context, records ...store.Record) error
	Close() error
}

// FromStore adapts a SQLite result store to the pool's Store interface
func FromStore(s *store.Store) Store {
	return sqlStore{s: s}
}

type sqlStore struct {
	s *store.Store
}

func (a sqlStore) Cursor(ctx context.Context) (Cursor, error) {
	c, err := a.s.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (a sqlStore) Close() error {
	return a.s.Close()
}
