package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aryankumar/netdiscover/internal/store"
	"github.com/aryankumar/netdiscover/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.Context(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestStore_InsertAndRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	cur, err := s.Cursor(ctx)
	require.NoError(t, err)
	defer cur.Close()

	err = cur.Insert(ctx,
		store.Record{Hostname: "r2", Vendor: "Juniper", OS: "JunOS", Protocol: store.ProtocolSSH},
		store.Record{Hostname: "r1", Vendor: "Cisco", OS: "IOS-XR", Protocol: store.ProtocolSSH},
	)
	require.NoError(t, err)

	records, err := s.Records(ctx)
	require.NoError(t, err)
	require.Equal(t, []store.Record{
		{Hostname: "r1", Vendor: "Cisco", OS: "IOS-XR", Protocol: "ssh"},
		{Hostname: "r2", Vendor: "Juniper", OS: "JunOS", Protocol: "ssh"},
	}, records)
}

func TestStore_EmptyInsertIsNoop(t *testing.T) {
	s := newTestStore(t)

	cur, err := s.Cursor(t.Context())
	require.NoError(t, err)
	defer cur.Close()

	require.NoError(t, cur.Insert(t.Context()))

	records, err := s.Records(t.Context())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_SchemaResetOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := t.Context()

	first, err := store.Open(ctx, path)
	require.NoError(t, err)
	cur, err := first.Cursor(ctx)
	require.NoError(t, err)
	require.NoError(t, cur.Insert(ctx, store.Record{Hostname: "r1", Vendor: "Cisco", OS: "IOS", Protocol: "ssh"}))
	require.NoError(t, cur.Close())
	require.NoError(t, first.Close())

	second, err := store.Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	records, err := second.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "a new run must not see rows from the previous run")
	assert.Equal(t, path, second.Path())
}

func TestStore_ConcurrentCursors(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			cur, err := s.Cursor(ctx)
			if err != nil {
				errs <- err
				return
			}
			defer cur.Close()
			for i := 0; i < perWorker; i++ {
				rec := store.Record{Hostname: fmt.Sprintf("w%d-d%d", w, i), Vendor: "Cisco", OS: "IOS", Protocol: "ssh"}
				if err := cur.Insert(ctx, rec); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	records, err := s.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, workers*perWorker)
	assert.Equal(t, 0, s.OpenCursors())
}

func TestStore_CursorAccounting(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Cursor(t.Context())
	require.NoError(t, err)
	b, err := s.Cursor(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, s.OpenCursors())

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.Equal(t, 1, s.OpenCursors())

	require.NoError(t, b.Close())
	assert.Equal(t, 0, s.OpenCursors())

	err = a.Insert(t.Context(), store.Record{Hostname: "r1"})
	assert.ErrorIs(t, err, util.ErrStoreClosed)
}

func TestStore_Close(t *testing.T) {
	s, err := store.Open(t.Context(), ":memory:")
	require.NoError(t, err)

	cur, err := s.Cursor(t.Context())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")
	assert.True(t, s.Closed())

	_, err = s.Cursor(t.Context())
	assert.ErrorIs(t, err, util.ErrStoreClosed)

	err = cur.Insert(t.Context(), store.Record{Hostname: "r1"})
	assert.ErrorIs(t, err, util.ErrStoreClosed)

	_, err = s.Records(t.Context())
	assert.ErrorIs(t, err, util.ErrStoreClosed)
}

func TestStore_CursorCancelledContext(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := s.Cursor(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, s.OpenCursors())
}

func TestReadRecords_AfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	s, err := store.Open(t.Context(), path)
	require.NoError(t, err)

	cur, err := s.Cursor(t.Context())
	require.NoError(t, err)
	require.NoError(t, cur.Insert(t.Context(),
		store.Record{Hostname: "r2", Vendor: "Juniper", OS: "JunOS", Protocol: store.ProtocolSSH},
		store.Record{Hostname: "r1", Vendor: "Cisco", OS: "IOS-XR", Protocol: store.ProtocolSSH},
	))
	require.NoError(t, cur.Close())
	require.NoError(t, s.Close())

	records, err := store.ReadRecords(t.Context(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "r1", records[0].Hostname)
	assert.Equal(t, "IOS-XR", records[0].OS)
	assert.Equal(t, "r2", records[1].Hostname)
}
