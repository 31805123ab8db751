package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Job is a unit of background work.
type Job func(ctx context.Context) error

// Queue runs jobs on a fixed pool of workers behind a bounded channel.
// Enqueue never blocks the caller; when the buffer is full the job is dropped
// and logged. Background delivery is best-effort and must never stall a
// request.
type Queue struct {
	jobs    chan Job
	workers int
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewQueue creates a queue with the given buffer size and worker count.
func NewQueue(buffer, workers int, logger *zap.Logger) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		jobs:    make(chan Job, buffer),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker goroutines. They exit when the context is
// cancelled or the queue is closed.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(ctx, i)
	}
}

func (q *Queue) run(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			if err := job(ctx); err != nil {
				q.logger.Warn("background job failed",
					zap.Int("worker", id), zap.Error(err))
			}
		}
	}
}

// Enqueue hands a job to the pool without blocking. Returns false when the
// buffer is full and the job was dropped.
func (q *Queue) Enqueue(job Job) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		q.logger.Warn("job queue full, dropping job")
		return false
	}
}

// Close stops accepting jobs and waits for in-flight work to finish.
func (q *Queue) Close() {
	close(q.jobs)
	q.wg.Wait()
}
