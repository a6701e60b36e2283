package executor

import (
	"context"
	"errors"
	"sync"
)

// ErrMarkDoneUnderflow is returned when MarkDone is called more times than
// items were dequeued
var ErrMarkDoneUnderflow = errors.New("MarkDone called more times than items were dequeued")

// Queue is a FIFO of device hostnames shared by every worker of a pool.
// TryDequeue never blocks; an empty queue tells a worker it is finished.
type Queue struct {
	mu sync.Mutex

	items []string

	// inFlight counts items dequeued but not yet marked done
	inFlight int

	// drained is closed whenever nothing is pending or in flight
	drained chan struct{}
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	drained := make(chan struct{})
	close(drained)
	return &Queue{drained: drained}
}

// Enqueue appends hosts to the tail of the queue
func (q *Queue) Enqueue(hosts ...string) {
	if len(hosts) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinishedLocked() == 0 {
		q.drained = make(chan struct{})
	}
	q.items = append(q.items, hosts...)
}

// TryDequeue removes and returns the head of the queue. It reports false
// without blocking when the queue is empty.
func (q *Queue) TryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}

	host := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	q.inFlight++
	return host, true
}

// MarkDone records completion of one previously dequeued item
func (q *Queue) MarkDone() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inFlight == 0 {
		return ErrMarkDoneUnderflow
	}
	q.inFlight--

	if q.unfinishedLocked() == 0 {
		close(q.drained)
	}
	return nil
}

// Len returns the number of items waiting to be dequeued
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Unfinished returns the number of items not yet marked done, whether
// still queued or in flight
func (q *Queue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinishedLocked()
}

// Wait blocks until every enqueued item has been marked done or ctx ends
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	drained := q.drained
	q.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) unfinishedLocked() int {
	return len(q.items) + q.inFlight
}
