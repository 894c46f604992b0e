// Package taskq provides a small bounded executor for work that must not
// block the request path (history persistence, metric rollups). Failures are
// logged with the task name and never surface to the submitting request.
package taskq

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// task is one queued unit of work.
type task struct {
	name string
	fn   func(context.Context) error
}

// Queue runs submitted tasks on a fixed worker pool over a bounded channel.
// Submit never blocks: when the buffer is full the task is dropped and the
// drop is logged. Safe for concurrent use.
type Queue struct {
	tasks   chan task
	log     zerolog.Logger
	timeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// ErrClosed is returned by Drain when called twice.
var ErrClosed = errors.New("task queue already closed")

// New starts workers goroutines consuming a buffer-sized queue. Each task
// runs under its own timeout-bound context, detached from the request that
// submitted it.
func New(workers, buffer int, timeout time.Duration, lg zerolog.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	q := &Queue{
		tasks:   make(chan task, buffer),
		log:     lg,
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := t.fn(ctx); err != nil {
			q.log.Error().Err(err).Str("task", t.name).Msg("async task failed")
		}
		cancel()
	}
}

// Submit enqueues fn under name. It reports false (and logs) when the queue
// is full or already closed; the caller's success path is unaffected either
// way.
func (q *Queue) Submit(name string, fn func(context.Context) error) bool {
	defer func() {
		// Submitting after Drain closed the channel is a caller bug during
		// shutdown; swallow the panic and report a drop instead.
		if recover() != nil {
			q.log.Warn().Str("task", name).Msg("async task dropped: queue closed")
		}
	}()
	select {
	case q.tasks <- task{name: name, fn: fn}:
		return true
	default:
		q.log.Warn().Str("task", name).Msg("async task dropped: queue full")
		return false
	}
}

// Drain stops accepting tasks and waits for in-flight ones, bounded by ctx.
func (q *Queue) Drain(ctx context.Context) error {
	closed := false
	q.closeOnce.Do(func() {
		close(q.tasks)
		closed = true
	})
	if !closed {
		return ErrClosed
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
