package worker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestQueueRunsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(8, 2, zap.NewNop())
	q.Start(ctx)

	done := make(chan struct{})
	ok := q.Enqueue(func(context.Context) error {
		close(done)
		return nil
	})
	if !ok {
		t.Fatal("expected enqueue to succeed")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	// workers never started, so the buffer fills up
	q := NewQueue(1, 1, zap.NewNop())

	if !q.Enqueue(func(context.Context) error { return nil }) {
		t.Fatal("first enqueue should fit the buffer")
	}
	if q.Enqueue(func(context.Context) error { return nil }) {
		t.Fatal("second enqueue should be dropped")
	}
}

func TestCloseWaitsForInFlightJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue(8, 1, zap.NewNop())
	q.Start(ctx)

	ran := make(chan struct{})
	q.Enqueue(func(context.Context) error {
		time.Sleep(50 * time.Millisecond)
		close(ran)
		return nil
	})

	q.Close()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("close returned before job finished")
	}
}
