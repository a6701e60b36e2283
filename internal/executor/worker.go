package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aryankumar/netdiscover/internal/classify"
	"github.com/aryankumar/netdiscover/internal/session"
	"github.com/aryankumar/netdiscover/internal/store"
	"github.com/aryankumar/netdiscover/internal/util"
)

// State is a worker lifecycle state
type State int32

const (
	StateStarting State = iota
	StateIdle
	StateConnecting
	StateExecuting
	StateClassifying
	StatePersisting
	StateDraining
	StateCancelled
	StateCleanup
	StateTerminated
)

var stateNames = [...]string{
	StateStarting:    "starting",
	StateIdle:        "idle",
	StateConnecting:  "connecting",
	StateExecuting:   "executing",
	StateClassifying: "classifying",
	StatePersisting:  "persisting",
	StateDraining:    "draining",
	StateCancelled:   "cancelled",
	StateCleanup:     "cleanup",
	StateTerminated:  "terminated",
}

// String returns the state name
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Observer is notified as workers pick up and finish devices. Callbacks
// run on worker goroutines and must be safe for concurrent use.
type Observer interface {
	DeviceStarted(workerID int, hostname string)
	DeviceFinished(result DeviceResult)
}

// StateObserver is an optional extension of Observer that is told about
// every worker state transition.
type StateObserver interface {
	WorkerStateChanged(workerID int, from, to State)
}

type nopObserver struct{}

func (nopObserver) DeviceStarted(int, string)   {}
func (nopObserver) DeviceFinished(DeviceResult) {}

// Worker drains the shared queue one device at a time. Per-device failures
// are recorded and never returned; only cursor acquisition failures
// (as *util.FatalError) and cancellation leave run.
type Worker struct {
	id    int
	pool  *Pool
	queue *Queue
	state atomic.Int32

	logger  *slog.Logger
	collect func(DeviceResult)
}

func newWorker(id int, p *Pool, queue *Queue, collect func(DeviceResult)) *Worker {
	return &Worker{
		id:      id,
		pool:    p,
		queue:   queue,
		logger:  p.logger.With("worker_id", id),
		collect: collect,
	}
}

// ID returns the worker number, starting at 0
func (w *Worker) ID() int {
	return w.id
}

// State returns the current lifecycle state
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	prev := State(w.state.Swap(int32(s)))
	if prev != s {
		w.logger.Debug("worker state changed", "from", prev.String(), "state", s.String())
		if so, ok := w.pool.observer.(StateObserver); ok {
			so.WorkerStateChanged(w.id, prev, s)
		}
	}
}

// run is the worker main loop
func (w *Worker) run(ctx context.Context) (err error) {
	w.setState(StateStarting)

	var cursor Cursor
	defer func() {
		if err != nil && !util.IsFatal(err) {
			w.setState(StateCancelled)
			w.logger.Warn("worker was cancelled due to failure of other workers", "error", err)
		}

		w.setState(StateCleanup)
		w.logger.Debug("worker finished, running cleanup")
		if cursor != nil {
			if cerr := cursor.Close(); cerr != nil {
				w.logger.Warn("failed to close cursor", "error", cerr)
			}
		}
		w.setState(StateTerminated)
	}()

	cursor, err = w.pool.store.Cursor(ctx)
	if err != nil {
		cursor = nil
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		w.logger.Error("cannot get cursor", "error", err)
		return util.NewFatalError(w.id, fmt.Errorf("cannot get cursor: %w", err))
	}

	for {
		w.setState(StateIdle)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		host, ok := w.queue.TryDequeue()
		if !ok {
			w.setState(StateDraining)
			w.logger.Debug("queue empty, worker done")
			return nil
		}

		if err := w.process(ctx, cursor, host); err != nil {
			return err
		}
	}
}

// process handles one dequeued device. The returned error is either
// cancellation or a fatal bookkeeping error; the device outcome itself
// is delivered through collect.
func (w *Worker) process(ctx context.Context, cursor Cursor, host string) error {
	start := time.Now()
	logger := w.logger.With("host", host)
	w.pool.observer.DeviceStarted(w.id, host)

	result := DeviceResult{Hostname: host, WorkerID: w.id}

	lines, err := w.execute(ctx, host)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		stage := "connect"
		if w.State() == StateExecuting {
			stage = "execute"
		}
		logger.Error("device failed", "stage", stage, "error", err)
		result.Status = StatusFailed
		result.Err = util.WrapDeviceError(host, stage, err)
		return w.finish(result, start)
	}

	w.setState(StateClassifying)
	result.Lines = len(lines)
	if len(lines) == 0 {
		logger.Warn("device has no version output")
		result.Status = StatusEmpty
		return w.finish(result, start)
	}

	record := store.Record{
		Hostname: host,
		Vendor:   classify.Unknown,
		OS:       classify.Unknown,
		Protocol: store.ProtocolSSH,
	}
	result.Status = StatusUnclassified
	if match, ok := w.pool.classifier.Classify(lines); ok {
		record.Vendor = match.Vendor
		record.OS = match.Label
		result.Status = StatusClassified
		logger.Info("device classified", "os", match.Label, "line", match.Line)
		if all := w.pool.classifier.MatchAll(match.Line); len(all) > 1 {
			logger.Debug("line matched several families, most specific kept",
				"matches", len(all), "os", match.Label)
		}
	} else {
		logger.Warn("device output matched no pattern", "lines", len(lines))
	}

	w.setState(StatePersisting)
	if err := cursor.Insert(ctx, record); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Error("device failed", "stage", "persist", "error", err)
		result.Status = StatusFailed
		result.Err = util.WrapDeviceError(host, "persist", err)
		return w.finish(result, start)
	}

	result.Record = record
	return w.finish(result, start)
}

// execute runs the diagnostic command under the per-call timeout
func (w *Worker) execute(ctx context.Context, host string) ([]string, error) {
	w.setState(StateConnecting)

	callCtx := ctx
	if w.pool.commandTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.pool.commandTimeout)
		defer cancel()
	}
	callCtx = session.WithTrace(callCtx, &session.Trace{
		Connected: func(string) { w.setState(StateExecuting) },
	})

	lines, err := w.pool.sessions.Run(callCtx, host, w.pool.creds, w.pool.command)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, util.ErrTimeout) {
		err = fmt.Errorf("%w after %s: %w", util.ErrTimeout, w.pool.commandTimeout, err)
	}
	return lines, err
}

// finish marks the device done and publishes its result
func (w *Worker) finish(result DeviceResult, start time.Time) error {
	result.Duration = time.Since(start)

	if err := w.queue.MarkDone(); err != nil {
		return util.NewFatalError(w.id, err)
	}

	w.collect(result)
	w.pool.observer.DeviceFinished(result)
	w.logger.Debug("device finished",
		"host", result.Hostname,
		"status", result.Status.String(),
		"duration", result.Duration)
	return nil
}
