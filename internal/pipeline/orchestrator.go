package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/async"
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/decision"
	"github.com/joseph-ayodele/optimo/internal/metrics"
	"github.com/joseph-ayodele/optimo/internal/sink"
)

// DocumentProcessor is the per-document unit run on the worker pool.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, source string) (decision.Record, error)
}

// Summary describes a finished (or aborted) batch.
type Summary struct {
	RunID     string
	Records   []decision.Record // persisted, in completion order
	Empty     int
	Converged int
	Elapsed   time.Duration
}

func (s *Summary) add(rec decision.Record) {
	s.Records = append(s.Records, rec)
	switch rec.Decision {
	case constants.DecisionEmpty:
		s.Empty++
	case constants.DecisionConverged:
		s.Converged++
	}
}

// Orchestrator fans a batch out over the worker pool and persists each
// record as its document completes.
type Orchestrator struct {
	pool    *async.Pool
	proc    DocumentProcessor
	sink    sink.Sink
	logger  *slog.Logger
	maxDocs int
	timeout time.Duration
}

type OrchestratorOption func(*Orchestrator)

// WithMaxConcurrentDocuments bounds the documents in flight; n <= 0 keeps the default.
func WithMaxConcurrentDocuments(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxDocs = n
		}
	}
}

// WithDocumentTimeout bounds one document's processing time.
func WithDocumentTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func NewOrchestrator(pool *async.Pool, proc DocumentProcessor, s sink.Sink, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		pool:    pool,
		proc:    proc,
		sink:    s,
		logger:  logger,
		maxDocs: 2 * runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type outcome struct {
	source string
	rec    decision.Record
	err    error
}

// ProcessDocuments processes every path and appends one record per document
// to the sink in completion order. The first failure cancels the batch: units
// still in flight are awaited but not persisted, and the failure is returned
// as a *common.AppError whose Code names the stage. Records appended before
// the failure stay persisted. An empty batch succeeds without output.
func (o *Orchestrator) ProcessDocuments(ctx context.Context, paths []string) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	if len(paths) == 0 {
		return sum, nil
	}

	ctx = common.WithRunID(ctx, sum.RunID)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.logger.Info("batch started", "run_id", sum.RunID, "documents", len(paths), "max_concurrent", o.maxDocs)

	results := make(chan outcome, len(paths))
	go func() {
		defer close(results)
		var g errgroup.Group
		g.SetLimit(o.maxDocs)
		for _, path := range paths {
			if ctx.Err() != nil {
				break
			}
			path := path
			g.Go(func() error {
				results <- o.runOne(ctx, path)
				return nil
			})
		}
		_ = g.Wait()
	}()

	var firstErr error
	for out := range results {
		if firstErr != nil {
			continue
		}
		if out.err != nil {
			firstErr = o.fail(out.source, out.err)
			cancel()
			continue
		}
		if err := o.sink.Append(ctx, out.rec); err != nil {
			firstErr = o.fail(out.source, err)
			cancel()
			continue
		}
		metrics.DocumentsTotal.WithLabelValues(string(out.rec.Decision)).Inc()
		sum.add(out.rec)
	}

	sum.Elapsed = time.Since(start)
	if firstErr != nil {
		o.logger.Error("batch aborted", "run_id", sum.RunID, "persisted", len(sum.Records), "error", firstErr)
		return sum, firstErr
	}
	o.logger.Info("batch finished",
		"run_id", sum.RunID,
		"documents", len(sum.Records),
		"converged", sum.Converged,
		"empty", sum.Empty,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}

func (o *Orchestrator) runOne(ctx context.Context, source string) outcome {
	ctx, cancel := common.WithTimeout(common.WithDocument(ctx, source), o.timeout)
	defer cancel()

	rec, err := async.Do(ctx, o.pool, func(ctx context.Context) (decision.Record, error) {
		return o.proc.ProcessDocument(ctx, source)
	})
	return outcome{source: source, rec: rec, err: err}
}

func (o *Orchestrator) fail(source string, err error) error {
	stage := common.StageOf(err)
	metrics.DocumentFailuresTotal.WithLabelValues(stage).Inc()
	return common.NewAppError(stage, "document "+source, err)
}

// Batch adapts the orchestrator to async.BatchFunc for the watch queue.
func (o *Orchestrator) Batch(ctx context.Context, paths []string) error {
	_, err := o.ProcessDocuments(ctx, paths)
	return err
}
