package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/optimo/internal/async"
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/metrics"
	"github.com/joseph-ayodele/optimo/internal/ocr"
	"github.com/joseph-ayodele/optimo/internal/pipeline"
	"github.com/joseph-ayodele/optimo/internal/repository"
	"github.com/joseph-ayodele/optimo/internal/server"
	"github.com/joseph-ayodele/optimo/internal/sink"
)

// newEngine is swapped in tests.
var newEngine = func(cfg common.OCRConfig, logger *slog.Logger) (ocr.Engine, error) {
	return ocr.NewEngine(cfg.Engine, ocr.TesseractConfig{
		Bin:         cfg.Tesseract,
		TessdataDir: cfg.TessdataDir,
		PSM:         cfg.PSM,
		OEM:         cfg.OEM,
		TSV:         cfg.TSVConfidence,
	}, logger)
}

// env is everything a batch or the watcher needs, plus its teardown.
type env struct {
	orch    *pipeline.Orchestrator
	pool    *async.Pool
	log     *sink.JSONL
	sink    sink.Sink
	db      *repository.DB
	probes  map[string]server.Probe
	logger  *slog.Logger
	closers []func()
}

func (a *app) buildEnv(ctx context.Context) (*env, error) {
	rt := &env{logger: a.logger, probes: map[string]server.Probe{}}

	engine, err := newEngine(a.cfg.OCR, a.logger)
	if err != nil {
		return nil, err
	}
	producer := ocr.NewProducer(engine, a.logger)
	proc := pipeline.NewProcessor(producer, pipeline.ProcessorConfig{
		Lang:               a.cfg.OCR.Lang,
		Variants:           a.cfg.Variants(),
		ArtifactsDir:       a.paths.Artifacts,
		KeepArtifacts:      a.cfg.OCR.KeepArtifacts,
		VariantParallelism: a.cfg.Pipeline.VariantParallelism,
	}, a.logger)

	rt.pool = async.NewPool(a.logger,
		async.WithWorkers(a.cfg.Pipeline.Workers),
		async.WithQueueSize(a.cfg.Pipeline.QueueSize),
	)
	rt.closers = append(rt.closers, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rt.pool.Shutdown(sctx)
	})

	metrics.RegisterPipelineMetrics()
	if err := prometheus.Register(metrics.NewQueueDepthGauge(rt.pool)); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			a.logger.Warn("queue depth gauge not registered", "error", err)
		}
	}

	rt.log = sink.NewJSONL(a.paths.LogFile, a.logger)
	rt.probes["data_dir"] = func(context.Context) error {
		_, err := os.Stat(a.paths.Data)
		return err
	}

	mirrors, err := a.openMirrors(ctx, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.sink = sink.NewMulti(rt.log, mirrors...)
	rt.closers = append(rt.closers, func() {
		if err := rt.sink.Close(); err != nil {
			a.logger.Warn("failed to close sinks", "error", err)
		}
	})

	rt.orch = pipeline.NewOrchestrator(rt.pool, proc, rt.sink, a.logger,
		pipeline.WithMaxConcurrentDocuments(a.cfg.Pipeline.MaxConcurrentDocuments),
		pipeline.WithDocumentTimeout(a.cfg.Pipeline.DocumentTimeout),
	)
	a.logger.Debug("pipeline ready",
		"engine", engine.Name(),
		"workers", rt.pool.Workers(),
		"mirrors", len(mirrors),
	)
	return rt, nil
}

func (a *app) openMirrors(ctx context.Context, rt *env) ([]sink.Sink, error) {
	var mirrors []sink.Sink

	if a.cfg.Store.DSN != "" {
		db, decisions, err := server.ConnectDB(ctx, a.cfg.Store, a.logger)
		if err != nil {
			return nil, common.NewAppError(common.StagePersistence, "open store", errors.Join(common.ErrPersistence, err))
		}
		rt.db = db
		rt.closers = append(rt.closers, func() { server.CloseDB(db, a.logger) })
		rt.probes["store"] = func(ctx context.Context) error { return db.HealthCheck(ctx, 0) }
		mirrors = append(mirrors, sink.NewStore(decisions))
	}

	if a.cfg.Redis.URL != "" {
		rs, err := sink.NewRedisStream(a.cfg.Redis.URL, a.cfg.Redis.Stream, a.logger)
		if err != nil {
			return nil, common.NewAppError(common.StageConfig, "redis url", errors.Join(common.ErrInvalidInput, err))
		}
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, common.NewAppError(common.StagePersistence, fmt.Sprintf("redis stream %s", a.cfg.Redis.Stream), errors.Join(common.ErrPersistence, err))
		}
		rt.probes["redis"] = rs.Ping
		mirrors = append(mirrors, rs)
	}
	return mirrors, nil
}

// Close tears down in reverse order of construction.
func (rt *env) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
