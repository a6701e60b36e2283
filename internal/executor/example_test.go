package executor_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aryankumar/netdiscover/internal/classify"
	"github.com/aryankumar/netdiscover/internal/executor"
	"github.com/aryankumar/netdiscover/internal/session"
	"github.com/aryankumar/netdiscover/internal/store"
)

// Example runs a single worker against canned banners and a SQLite store
func Example() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "netdiscover_*_db")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "results.db")

	db, err := store.Open(ctx, path)
	if err != nil {
		fmt.Println(err)
		return
	}

	banners := map[string][]string{
		"r1": {"Cisco IOS XR Software, Version 7.3.2"},
		"r3": {"Hostname: r3", "Model: mx204", "Junos: 21.4R3.15"},
	}
	sessions := session.ClientFunc(func(_ context.Context, host string, _ session.Credentials, _ string) ([]string, error) {
		if lines, ok := banners[host]; ok {
			return lines, nil
		}
		return nil, errors.New("connection refused")
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError + 4,
	}))

	pool := executor.NewPool(1, executor.FromStore(db), sessions, classify.Default(),
		executor.WithLogger(logger))

	report, err := pool.Run(ctx, []string{"r1", "r2", "r3"})
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, r := range report.Results {
		line := r.Hostname + " " + r.Status.String()
		if r.Persisted() {
			line += " " + r.Record.OS
		}
		fmt.Println(line)
	}

	records, err := store.ReadRecords(ctx, path)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s: %d rows\n", report.Outcome, len(records))

	// Output:
	// r1 classified IOS-XR
	// r2 failed
	// r3 classified JunOS
	// completed: 2 rows
}

// ExampleWithObserver reports progress as devices finish
func ExampleWithObserver() {
	sessions := session.ClientFunc(func(context.Context, string, session.Credentials, string) ([]string, error) {
		return []string{"Cisco IOS Software, Version 15.2(4)E10"}, nil
	})

	db, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		fmt.Println(err)
		return
	}

	pool := executor.NewPool(1, executor.FromStore(db), sessions, nil,
		executor.WithLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 4}))),
		executor.WithObserver(progress{}))

	if _, err := pool.Run(context.Background(), []string{"sw1", "sw2"}); err != nil {
		fmt.Println(err)
	}

	// Output:
	// sw1: classified
	// sw2: classified
}

type progress struct{}

func (progress) DeviceStarted(int, string) {}

func (progress) DeviceFinished(r executor.DeviceResult) {
	fmt.Printf("%s: %s\n", r.Hostname, r.Status)
}
