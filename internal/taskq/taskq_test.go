package taskq

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestQueue_RunsSubmittedTasks(t *testing.T) {
	q := New(2, 8, time.Second, zerolog.Nop())

	var ran int64
	for i := 0; i < 5; i++ {
		ok := q.Submit("count", func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
		if !ok {
			t.Fatalf("submit %d rejected", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got := atomic.LoadInt64(&ran); got != 5 {
		t.Fatalf("ran %d tasks, want 5", got)
	}
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := New(1, 1, time.Second, zerolog.Nop())

	block := make(chan struct{})
	// Occupy the single worker so subsequent submits pile into the buffer.
	q.Submit("blocker", func(ctx context.Context) error {
		<-block
		return nil
	})

	// Give the worker a moment to pick up the blocker so the buffer is empty.
	deadline := time.Now().Add(time.Second)
	for len(q.tasks) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("worker never picked up the blocking task")
		}
		time.Sleep(time.Millisecond)
	}

	if !q.Submit("buffered", func(ctx context.Context) error { return nil }) {
		t.Fatalf("buffered submit rejected with space available")
	}
	if q.Submit("overflow", func(ctx context.Context) error { return nil }) {
		t.Fatalf("submit must report false when the buffer is full")
	}

	close(block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestQueue_TaskErrorsDoNotStopWorkers(t *testing.T) {
	q := New(1, 4, time.Second, zerolog.Nop())

	var ran int64
	q.Submit("failing", func(ctx context.Context) error { return errors.New("boom") })
	q.Submit("after", func(ctx context.Context) error {
		atomic.AddInt64(&ran, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if atomic.LoadInt64(&ran) != 1 {
		t.Fatalf("task after a failure did not run")
	}
}

func TestQueue_TaskContextHasTimeout(t *testing.T) {
	q := New(1, 1, 50*time.Millisecond, zerolog.Nop())

	got := make(chan bool, 1)
	q.Submit("deadline", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		got <- ok
		return nil
	})

	select {
	case ok := <-got:
		if !ok {
			t.Fatalf("task context must carry a deadline")
		}
	case <-time.After(time.Second):
		t.Fatalf("task never ran")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestQueue_DrainTwiceAndSubmitAfterClose(t *testing.T) {
	q := New(1, 1, time.Second, zerolog.Nop())

	ctx := context.Background()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("first drain: %v", err)
	}
	if err := q.Drain(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("second drain: got %v, want ErrClosed", err)
	}
	if q.Submit("late", func(ctx context.Context) error { return nil }) {
		t.Fatalf("submit after close must report false")
	}
}
