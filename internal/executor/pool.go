package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aryankumar/netdiscover/internal/classify"
	"github.com/aryankumar/netdiscover/internal/session"
	"github.com/aryankumar/netdiscover/internal/util"
)

const (
	// DefaultSize is the number of workers started by a pool
	DefaultSize = 3

	// DefaultCommandTimeout bounds a single session call
	DefaultCommandTimeout = 30 * time.Second
)

// ErrPoolRunning is returned when Run is called on a pool that is already running
var ErrPoolRunning = errors.New("pool is already running")

// Pool runs a fixed number of workers over one queue and one store.
// A fatal error in any worker cancels the others; the store is closed
// exactly once after every worker has cleaned up.
type Pool struct {
	size       int
	store      Store
	sessions   session.Client
	classifier *classify.Classifier

	logger         *slog.Logger
	observer       Observer
	commandTimeout time.Duration
	drainTimeout   time.Duration
	creds          session.Credentials
	command        string

	running atomic.Bool

	// mu protects workers
	mu      sync.Mutex
	workers []*Worker
}

// Option configures a Pool
type Option func(*Pool)

// WithLogger sets the logger used by the pool and its workers
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver registers callbacks for per-device progress
func WithObserver(o Observer) Option {
	return func(p *Pool) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithCommandTimeout bounds each session call. Zero disables the bound.
func WithCommandTimeout(d time.Duration) Option {
	return func(p *Pool) {
		p.commandTimeout = max(d, 0)
	}
}

// WithDrainTimeout bounds the whole run. Zero disables the bound.
func WithDrainTimeout(d time.Duration) Option {
	return func(p *Pool) {
		p.drainTimeout = max(d, 0)
	}
}

// WithCredentials sets the credentials used for every device
func WithCredentials(creds session.Credentials) Option {
	return func(p *Pool) {
		p.creds = creds
	}
}

// WithCommand overrides the diagnostic command
func WithCommand(command string) Option {
	return func(p *Pool) {
		if command != "" {
			p.command = command
		}
	}
}

// NewPool creates a pool of size workers. size <= 0 uses DefaultSize and a
// nil classifier uses classify.Default().
func NewPool(size int, store Store, sessions session.Client, classifier *classify.Classifier, opts ...Option) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	if classifier == nil {
		classifier = classify.Default()
	}

	p := &Pool{
		size:           size,
		store:          store,
		sessions:       sessions,
		classifier:     classifier,
		logger:         slog.Default(),
		observer:       nopObserver{},
		commandTimeout: DefaultCommandTimeout,
		command:        session.DefaultCommand,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers the pool starts
func (p *Pool) Size() int {
	return p.size
}

// IsRunning returns true while Run is executing
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Workers returns the workers of the current or most recent run
func (p *Pool) Workers() []*Worker {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Run enqueues devices, runs the workers until the queue is drained, and
// closes the store. The returned error is nil only for OutcomeCompleted
// with a clean store close; per-device failures are reported in
// Report.Results, never as an error.
func (p *Pool) Run(ctx context.Context, devices []string) (Report, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Report{}, ErrPoolRunning
	}
	defer p.running.Store(false)

	if p.store == nil || p.sessions == nil {
		return Report{}, errors.New("pool requires a store and a session client")
	}

	startTime := time.Now()

	queue := NewQueue()
	for _, d := range devices {
		if d == "" {
			p.logger.Warn("skipping empty device name")
			continue
		}
		queue.Enqueue(d)
	}
	total := queue.Len()

	runCtx := ctx
	if p.drainTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeoutCause(ctx, p.drainTimeout, util.ErrPoolStalled)
		defer cancel()
	}

	var (
		resultsMu sync.Mutex
		results   = make([]DeviceResult, 0, total)
	)
	collect := func(r DeviceResult) {
		resultsMu.Lock()
		results = append(results, r)
		resultsMu.Unlock()
	}

	p.logger.Info("starting discovery",
		"workers", p.size,
		"devices", total)

	g, gctx := errgroup.WithContext(runCtx)

	workers := make([]*Worker, p.size)
	for i := range workers {
		workers[i] = newWorker(i, p, queue, collect)
	}
	p.mu.Lock()
	p.workers = workers
	p.mu.Unlock()

	for _, w := range workers {
		g.Go(func() error {
			return w.run(gctx)
		})
	}

	err := g.Wait()

	// Every worker has released its cursor; close the shared connection once
	closeErr := p.store.Close()

	resultsMu.Lock()
	report := Report{
		Workers:  p.size,
		Devices:  total,
		Results:  results,
		Duration: time.Since(startTime),
	}
	resultsMu.Unlock()

	switch {
	case err == nil:
		report.Outcome = OutcomeCompleted
	case util.IsFatal(err):
		report.Outcome = OutcomeAbortedFatal
		p.logger.Error("worker failed, cannot continue", "error", err)
	case ctx.Err() == nil && errors.Is(context.Cause(runCtx), util.ErrPoolStalled):
		report.Outcome = OutcomeStalled
		err = fmt.Errorf("%w: %d of %d devices unfinished after %s",
			util.ErrPoolStalled, queue.Unfinished(), total, p.drainTimeout)
	default:
		report.Outcome = OutcomeCancelled
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
	}
	report.Reason = err

	if closeErr != nil {
		p.logger.Error("failed to close result store", "error", closeErr)
		if err == nil {
			err = fmt.Errorf("failed to close result store: %w", closeErr)
		}
	}

	summary := report.Summary()
	p.logger.Info("discovery finished",
		"outcome", report.Outcome.String(),
		"classified", summary.Classified,
		"unclassified", summary.Unclassified,
		"empty", summary.Empty,
		"failed", summary.Failed,
		"unprocessed", summary.Unprocessed,
		"success_rate", fmt.Sprintf("%.1f%%", SuccessRate(results)),
		"duration", report.Duration)
	for id, rs := range GroupByWorker(results) {
		p.logger.Debug("worker summary", "worker_id", id, "devices", len(rs))
	}

	return report, err
}
