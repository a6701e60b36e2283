// Package executor runs device discovery over a fixed pool of workers.
//
// A Pool owns one Queue of hostnames and one Store. Each Worker takes a
// private cursor from the store, then repeatedly pops a host, runs the
// diagnostic command through a session.Client, classifies the banner and
// writes a single row. The queue is populated before any worker starts
// and is only drained afterwards.
//
// # Basic Usage
//
//	db, err := store.Open(ctx, path)
//	if err != nil {
//	    return err
//	}
//
//	pool := executor.NewPool(executor.DefaultSize,
//	    executor.FromStore(db),
//	    session.NewSSHClient(session.DefaultSSHConfig()),
//	    classify.Default(),
//	    executor.WithLogger(logger),
//	    executor.WithCredentials(creds),
//	)
//
//	report, err := pool.Run(ctx, []string{"r1", "r2", "r3"})
//
// # Failure Handling
//
// A device that cannot be reached, times out, or fails to persist is
// recorded as StatusFailed in Report.Results and the worker moves on.
// Failing to obtain a cursor is fatal: Run cancels every other worker,
// waits for their cleanup, closes the store and returns a
// *util.FatalError with OutcomeAbortedFatal. Devices still queued at that
// point are left unprocessed.
//
// Cancelling the context passed to Run yields OutcomeCancelled. When a
// drain timeout is configured and expires first, Run returns
// util.ErrPoolStalled with OutcomeStalled.
//
// # Worker States
//
// Workers move through Starting, then Idle, Connecting, Executing,
// Classifying and Persisting for each device, and finally Draining and
// Terminated. Cancelled and Cleanup are entered on cancellation. The
// current state is available from Worker.State and every transition is
// logged at debug level.
//
// # Concurrency Guarantees
//
//   - Each device is dequeued by exactly one worker
//   - Devices are picked up in FIFO order; completion order is unspecified
//   - Store writes are serialised; cursors are never shared
//   - The store is closed exactly once, after all workers terminate
//   - No goroutine outlives Run
package executor
