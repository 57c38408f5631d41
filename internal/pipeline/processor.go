package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/decision"
	"github.com/joseph-ayodele/optimo/internal/metrics"
	"github.com/joseph-ayodele/optimo/internal/reduce"
)

type ProcessorConfig struct {
	Lang               string
	Variants           []constants.Variant
	ArtifactsDir       string // parent of the per-document working directories
	KeepArtifacts      bool
	VariantParallelism int
}

// Processor turns one source document into a decision record: map variants,
// reduce, encode. It is the unit of work handed to the worker pool.
type Processor struct {
	cfg      ProcessorConfig
	producer VariantProducer
	logger   *slog.Logger
}

func NewProcessor(producer VariantProducer, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lang == "" {
		cfg.Lang = "ita"
	}
	if len(cfg.Variants) == 0 {
		cfg.Variants = constants.DefaultVariants()
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = filepath.Join("data", "ocrys")
	}
	if cfg.VariantParallelism <= 0 {
		cfg.VariantParallelism = runtime.GOMAXPROCS(0)
	}
	return &Processor{cfg: cfg, producer: producer, logger: logger}
}

// ProcessDocument runs the whole unit for source inside a fresh working directory.
func (p *Processor) ProcessDocument(ctx context.Context, source string) (decision.Record, error) {
	start := time.Now()

	workDir := filepath.Join(p.cfg.ArtifactsDir, uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return decision.Record{}, fmt.Errorf("%w: create work dir: %w", common.ErrInternal, err)
	}
	if !p.cfg.KeepArtifacts {
		defer func() {
			if err := os.RemoveAll(workDir); err != nil {
				p.logger.Warn("failed to remove work dir", "work_dir", workDir, "error", err)
			}
		}()
	}

	docs, err := mapVariants(ctx, p.producer, source, workDir, p.cfg.Lang, p.cfg.Variants, p.cfg.VariantParallelism)
	if err != nil {
		p.logger.Error("processor.map.failed", "source", source, "run_id", common.RunIDFromContext(ctx), "err", err)
		return decision.Record{}, err
	}

	reduced, err := reduce.Documents(docs)
	if err != nil {
		p.logger.Error("processor.reduce.failed", "source", source, "err", err)
		return decision.Record{}, err
	}

	rec := decision.Build(reduced)
	metrics.DocumentDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("processor.document.ok",
		"source", source,
		"run_id", common.RunIDFromContext(ctx),
		"decision", rec.Decision,
		"lines", rec.Lines,
		"variants", len(docs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}
