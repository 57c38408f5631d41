package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one file handed to the background queue.
type Job struct {
	ID          uuid.UUID
	Path        string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// BatchFunc processes a batch of document paths.
type BatchFunc func(ctx context.Context, paths []string) error

// ProcessorQueue feeds jobs one at a time into a BatchFunc on background
// workers. A failing job is logged and does not stop the queue.
type ProcessorQueue struct {
	process BatchFunc
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type QueueOption func(*ProcessorQueue)

func WithQueueWorkers(n int) QueueOption {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueCapacity(n int) QueueOption {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) QueueOption {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(process BatchFunc, logger *slog.Logger, opts ...QueueOption) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		process: process,
		logger:  logger,
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.process(ctx, []string{job.Path})
					cancel()

					if err != nil {
						q.logger.Error("processing failed", "worker_id", workerID, "job_id", job.ID, "path", job.Path, "error", err)
					} else {
						q.logger.Info("processed file successfully", "worker_id", workerID, "job_id", job.ID, "path", job.Path,
							"queued_ms", time.Since(job.SubmittedAt).Milliseconds())
					}
				}

				q.logger.Info("queue worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks while the queue is full. Jobs offered after Shutdown are dropped.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "job_id", job.ID, "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
