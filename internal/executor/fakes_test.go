package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aryankumar/netdiscover/internal/session"
	"github.com/aryankumar/netdiscover/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore records inserts in memory
type fakeStore struct {
	mu      sync.Mutex
	records []store.Record

	// cursorHook runs on every Cursor call with its 1-based sequence number
	cursorHook func(ctx context.Context, n int64) error

	// insertErr fails inserts for the given hostnames
	insertErr map[string]error

	cursorCalls atomic.Int64
	openCursors atomic.Int64
	closeCalls  atomic.Int64
}

func (s *fakeStore) Cursor(ctx context.Context) (Cursor, error) {
	n := s.cursorCalls.Add(1)
	if s.cursorHook != nil {
		if err := s.cursorHook(ctx, n); err != nil {
			return nil, err
		}
	}
	s.openCursors.Add(1)
	return &fakeCursor{store: s}, nil
}

func (s *fakeStore) Close() error {
	s.closeCalls.Add(1)
	return nil
}

func (s *fakeStore) hosts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	hosts := make([]string, 0, len(s.records))
	for _, r := range s.records {
		hosts = append(hosts, r.Hostname)
	}
	sort.Strings(hosts)
	return hosts
}

func (s *fakeStore) record(host string) (store.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Hostname == host {
			return r, true
		}
	}
	return store.Record{}, false
}

type fakeCursor struct {
	store  *fakeStore
	closed atomic.Bool
}

func (c *fakeCursor) Insert(_ context.Context, records ...store.Record) error {
	if c.closed.Load() {
		return errors.New("cursor closed")
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	for _, r := range records {
		if err := c.store.insertErr[r.Hostname]; err != nil {
			return err
		}
	}
	c.store.records = append(c.store.records, records...)
	return nil
}

func (c *fakeCursor) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.store.openCursors.Add(-1)
	}
	return nil
}

// banners returns a session client answering from a fixed host table.
// Unknown hosts get an error.
func banners(table map[string][]string) session.Client {
	return session.ClientFunc(func(ctx context.Context, host string, _ session.Credentials, _ string) ([]string, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, ok := table[host]
		if !ok {
			return nil, errors.New("no route to host")
		}
		return lines, nil
	})
}

// blockUntilDone is a session client that never answers before ctx ends
func blockUntilDone(started chan<- string) session.Client {
	return session.ClientFunc(func(ctx context.Context, host string, _ session.Credentials, _ string) ([]string, error) {
		if started != nil {
			select {
			case started <- host:
			default:
			}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

// recordingObserver counts observer callbacks
type recordingObserver struct {
	mu       sync.Mutex
	started  map[string]int
	finished []DeviceResult
	states   map[int][]State
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		started: make(map[string]int),
		states:  make(map[int][]State),
	}
}

func (o *recordingObserver) WorkerStateChanged(id int, _, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states[id] = append(o.states[id], to)
}

// history returns the states worker id moved through, in order
func (o *recordingObserver) history(id int) []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.states[id])
}

func (o *recordingObserver) DeviceStarted(_ int, host string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started[host]++
}

func (o *recordingObserver) DeviceFinished(r DeviceResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, r)
}
