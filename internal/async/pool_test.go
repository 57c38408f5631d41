package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/optimo/internal/common"
)

func TestDo_ReturnsValue(t *testing.T) {
	p := NewPool(nil, WithWorkers(2))
	defer p.Shutdown(context.Background())

	v, err := Do(context.Background(), p, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDo_PassesThroughTaskError(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))
	defer p.Shutdown(context.Background())

	boom := errors.New("boom")
	_, err := Do(context.Background(), p, func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	var be *BoundaryError
	assert.False(t, errors.As(err, &be), "task errors are not boundary errors")
}

func TestDo_PanicBecomesBoundaryError(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))
	defer p.Shutdown(context.Background())

	_, err := Do(context.Background(), p, func(context.Context) (int, error) { panic("kaboom") })
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrWorkerBoundary)
	assert.Contains(t, err.Error(), "kaboom")

	// the worker survives the panic
	v, err := Do(context.Background(), p, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestDo_ClosedPool(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))
	p.Shutdown(context.Background())

	_, err := Do(context.Background(), p, func(context.Context) (int, error) { return 0, nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrWorkerBoundary)
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestDo_ContextCancelledWhileAwaiting(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))
	defer p.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	_, err := Do(ctx, p, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return 0, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrWorkerBoundary)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_BoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(nil, WithWorkers(workers), WithQueueSize(1))
	defer p.Shutdown(context.Background())

	var running, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Do(context.Background(), p, func(context.Context) (struct{}, error) {
				n := atomic.AddInt64(&running, 1)
				for {
					old := atomic.LoadInt64(&peak)
					if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&running, -1)
				return struct{}{}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(workers))
	assert.Equal(t, workers, p.Workers())
}
