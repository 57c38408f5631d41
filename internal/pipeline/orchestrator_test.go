package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/async"
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/decision"
	"github.com/joseph-ayodele/optimo/internal/sink"
)

type funcProcessor func(ctx context.Context, source string) (decision.Record, error)

func (f funcProcessor) ProcessDocument(ctx context.Context, source string) (decision.Record, error) {
	return f(ctx, source)
}

type memSink struct {
	mu   sync.Mutex
	recs []decision.Record
	err  error
}

func (s *memSink) Append(_ context.Context, rec decision.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *memSink) Close() error { return nil }

func newPool(t *testing.T, workers int) *async.Pool {
	t.Helper()
	p := async.NewPool(nil, async.WithWorkers(workers))
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	return p
}

func converged(source string) decision.Record {
	return decision.Record{Source: source, Decision: constants.DecisionConverged, Lines: 1, Preview: "ok"}
}

func TestProcessDocuments_EmptyBatch(t *testing.T) {
	s := &memSink{}
	called := false
	o := NewOrchestrator(newPool(t, 1), funcProcessor(func(context.Context, string) (decision.Record, error) {
		called = true
		return decision.Record{}, nil
	}), s, nil)

	sum, err := o.ProcessDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sum.Records)
	assert.Empty(t, s.recs)
	assert.False(t, called)
}

func TestProcessDocuments_PersistsEveryDocument(t *testing.T) {
	s := &memSink{}
	o := NewOrchestrator(newPool(t, 4), funcProcessor(func(_ context.Context, src string) (decision.Record, error) {
		if strings.HasSuffix(src, "blank.png") {
			return decision.Record{Source: src, Decision: constants.DecisionEmpty}, nil
		}
		return converged(src), nil
	}), s, nil, WithMaxConcurrentDocuments(3))

	paths := []string{"a.png", "b.png", "blank.png", "c.pdf"}
	sum, err := o.ProcessDocuments(context.Background(), paths)
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 3, sum.Converged)
	assert.Equal(t, 1, sum.Empty)

	var got []string
	for _, r := range s.recs {
		got = append(got, r.Source)
	}
	assert.ElementsMatch(t, paths, got)
}

func TestProcessDocuments_BoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	o := NewOrchestrator(newPool(t, 8), funcProcessor(func(_ context.Context, src string) (decision.Record, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return converged(src), nil
	}), &memSink{}, nil, WithMaxConcurrentDocuments(2))

	paths := make([]string, 10)
	for i := range paths {
		paths[i] = fmt.Sprintf("doc-%d.png", i)
	}
	sum, err := o.ProcessDocuments(context.Background(), paths)
	require.NoError(t, err)
	assert.Len(t, sum.Records, 10)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestProcessDocuments_FailFast(t *testing.T) {
	dir := t.TempDir()
	eng := &fakeEngine{
		lines:  map[constants.Variant][]string{constants.VariantOriginal: {"Totale 12"}},
		failOn: "second",
	}
	proc, _ := newTestProcessor(t, eng, false)
	log := sink.NewJSONL(filepath.Join(dir, "decisions.jsonl"), nil)

	paths := []string{
		writeSource(t, dir, "first.png"),
		writeSource(t, dir, "second.png"),
		writeSource(t, dir, "third.png"),
	}
	o := NewOrchestrator(newPool(t, 1), proc, log, nil, WithMaxConcurrentDocuments(1))

	sum, err := o.ProcessDocuments(context.Background(), paths)
	require.Error(t, err)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.StageEngineInvocation, appErr.Code)
	assert.Contains(t, err.Error(), paths[1])
	assert.ErrorIs(t, err, common.ErrEngineInvocation)

	recs, err := sink.ReadJSONL(log.Path())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, paths[0], recs[0].Source)
	assert.Len(t, sum.Records, 1)
}

func TestProcessDocuments_SinkFailure(t *testing.T) {
	s := &memSink{err: fmt.Errorf("%w: disk full", common.ErrPersistence)}
	o := NewOrchestrator(newPool(t, 1), funcProcessor(func(_ context.Context, src string) (decision.Record, error) {
		return converged(src), nil
	}), s, nil)

	_, err := o.ProcessDocuments(context.Background(), []string{"a.png"})
	require.Error(t, err)
	assert.Equal(t, common.StagePersistence, common.StageOf(err))
	assert.Contains(t, err.Error(), "document a.png")
}

func TestProcessDocuments_PanicIsWorkerBoundary(t *testing.T) {
	o := NewOrchestrator(newPool(t, 1), funcProcessor(func(context.Context, string) (decision.Record, error) {
		panic("engine crashed")
	}), &memSink{}, nil)

	_, err := o.ProcessDocuments(context.Background(), []string{"a.png"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrWorkerBoundary))

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.StageWorkerBoundary, appErr.Code)
}

func TestProcessDocuments_DocumentTimeout(t *testing.T) {
	o := NewOrchestrator(newPool(t, 1), funcProcessor(func(ctx context.Context, src string) (decision.Record, error) {
		<-ctx.Done()
		return decision.Record{}, fmt.Errorf("%w: %w", common.ErrEngineInvocation, ctx.Err())
	}), &memSink{}, nil, WithDocumentTimeout(20*time.Millisecond))

	_, err := o.ProcessDocuments(context.Background(), []string{"slow.png"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBatch_AdaptsToQueue(t *testing.T) {
	s := &memSink{}
	o := NewOrchestrator(newPool(t, 1), funcProcessor(func(_ context.Context, src string) (decision.Record, error) {
		return converged(src), nil
	}), s, nil)

	var fn async.BatchFunc = o.Batch
	require.NoError(t, fn(context.Background(), []string{"a.png"}))
	assert.Len(t, s.recs, 1)
}
