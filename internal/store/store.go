package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aryankumar/netdiscover/internal/util"

	_ "modernc.org/sqlite"
)

// ProtocolSSH is recorded for devices reached over SSH
const ProtocolSSH = "ssh"

// Record is one classified device row
type Record struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	Vendor   string `json:"vendor" yaml:"vendor"`
	OS       string `json:"os" yaml:"os"`
	Protocol string `json:"protocol" yaml:"protocol"`
}

// Store is the shared result database. It holds a single connection and
// one mutex; every write transaction runs while holding that mutex.
type Store struct {
	db   *sql.DB
	path string

	// mu serialises write transactions and Close
	mu sync.Mutex

	closed  atomic.Bool
	cursors atomic.Int64
}

// Open opens (or creates) the database at path and resets the devices table.
// Results are never carried over from a previous run.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One shared connection; this also keeps ":memory:" databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, path: path}
	if err := s.reset(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create new SQLite database: %w", err)
	}

	return s, nil
}

func (s *Store) reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS devices`); err != nil {
		return fmt.Errorf("drop devices table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE devices(hostname, vendor, os, protocol)`); err != nil {
		return fmt.Errorf("create devices table: %w", err)
	}

	return tx.Commit()
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// Cursor opens a per-worker write handle. It fails once the store is
// closed or the database cannot be reached.
func (s *Store) Cursor(ctx context.Context) (*Cursor, error) {
	if s.closed.Load() {
		return nil, util.ErrStoreClosed
	}
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to create db cursor: %w", err)
	}

	s.cursors.Add(1)
	return &Cursor{store: s}, nil
}

// OpenCursors returns the number of cursors not yet closed
func (s *Store) OpenCursors() int {
	return int(s.cursors.Load())
}

// Records returns all persisted rows ordered by hostname
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	if s.closed.Load() {
		return nil, util.ErrStoreClosed
	}
	return queryRecords(ctx, s.db)
}

// ReadRecords opens the database at path without resetting it and returns
// its rows. It is used to read results back after the pool closed the store.
func ReadRecords(ctx context.Context, path string) ([]Record, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return queryRecords(ctx, db)
}

func queryRecords(ctx context.Context, db *sql.DB) ([]Record, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT hostname, vendor, os, protocol
		FROM devices
		ORDER BY hostname
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var hostname, vendor, os, protocol sql.NullString
		if err := rows.Scan(&hostname, &vendor, &os, &protocol); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		records = append(records, Record{
			Hostname: nullToString(hostname),
			Vendor:   nullToString(vendor),
			OS:       nullToString(os),
			Protocol: nullToString(protocol),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}

	return records, nil
}

// Closed reports whether Close has been called
func (s *Store) Closed() bool {
	return s.closed.Load()
}

// Close releases the shared connection. Only the first call closes the
// database; later calls return nil.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// insert runs one write transaction under the store mutex
func (s *Store) insert(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return util.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO devices (hostname, vendor, os, protocol) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Hostname, r.Vendor, r.OS, r.Protocol); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.Hostname, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
