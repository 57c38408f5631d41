package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/joseph-ayodele/optimo/internal/common"
)

// ErrPoolClosed is returned when work is submitted after Shutdown.
var ErrPoolClosed = errors.New("pool closed")

// BoundaryError reports a failure crossing into or out of the pool, as opposed
// to an error returned by the submitted work itself.
type BoundaryError struct {
	Op  string // "submit" | "run" | "await"
	Err error
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%v: %s: %v", common.ErrWorkerBoundary, e.Op, e.Err)
}

func (e *BoundaryError) Unwrap() []error { return []error{common.ErrWorkerBoundary, e.Err} }

// Pool runs CPU-bound and blocking work on a fixed set of goroutines fed by a
// bounded task channel.
type Pool struct {
	logger  *slog.Logger
	workers int

	ch   chan func()
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.ch = make(chan func(), n)
		}
	}
}

func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		logger:  logger,
		workers: runtime.GOMAXPROCS(0),
		ch:      make(chan func(), 256),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug("worker started", "worker_id", workerID)
				for task := range p.ch {
					task()
				}
				p.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// QueueDepth returns the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int { return len(p.ch) }

func (p *Pool) submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return &BoundaryError{Op: "submit", Err: ErrPoolClosed}
	}
	select {
	case p.ch <- task:
		return nil
	default:
	}
	p.logger.Debug("pool queue full, applying backpressure", "queue_depth", len(p.ch))
	select {
	case p.ch <- task:
		return nil
	case <-ctx.Done():
		return &BoundaryError{Op: "submit", Err: ctx.Err()}
	}
}

// Do runs fn on the pool and waits for its result. Errors returned by fn pass
// through untouched; a closed pool, a context that ends before fn finishes, or
// a panic inside fn come back as *BoundaryError.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	var zero T
	done := make(chan result, 1)

	err := p.submit(ctx, func() {
		if err := ctx.Err(); err != nil {
			done <- result{err: &BoundaryError{Op: "run", Err: err}}
			return
		}
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("task panicked", "panic", r)
				done <- result{err: &BoundaryError{Op: "run", Err: fmt.Errorf("panic: %v", r)}}
			}
		}()
		v, err := fn(ctx)
		done <- result{val: v, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		select {
		case r := <-done:
			return r.val, r.err
		default:
		}
		return zero, &BoundaryError{Op: "await", Err: ctx.Err()}
	}
}

// Shutdown stops accepting work and waits for queued tasks to finish or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("pool shutdown interrupted by context")
	case <-done:
		p.logger.Debug("pool drained, shutdown complete")
	}
}
