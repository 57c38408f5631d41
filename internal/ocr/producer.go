package ocr

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/optimo/constants"
)

// Job asks for one variant of one document.
type Job struct {
	Source  string
	WorkDir string
	Lang    string
	Variant constants.Variant
}

// Producer renders a variant and runs the engine on it exactly once.
type Producer struct {
	engine Engine
	logger *slog.Logger
}

func NewProducer(engine Engine, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{engine: engine, logger: logger}
}

// Produce returns a single-page document for the job. Engine output goes to
// <WorkDir>/ocr_<variant>. Every failure is returned as a *VariantError.
func (p *Producer) Produce(ctx context.Context, job Job) (Document, error) {
	start := time.Now()

	input, err := RenderVariant(job.Source, job.WorkDir, job.Variant)
	if err != nil {
		return Document{}, &VariantError{Source: job.Source, Variant: job.Variant, Err: err}
	}

	doc, err := p.engine.Recognize(ctx, Request{
		Input:   input,
		OutBase: filepath.Join(job.WorkDir, "ocr_"+string(job.Variant)),
		Lang:    job.Lang,
	})
	if err != nil {
		return Document{}, &VariantError{Source: job.Source, Variant: job.Variant, Err: err}
	}

	var lines []Line
	for _, pg := range doc.Pages {
		lines = append(lines, pg.Lines...)
	}
	out := SinglePage(job.Source, lines)

	p.logger.Debug("variant produced",
		"source", job.Source,
		"variant", job.Variant,
		"engine", p.engine.Name(),
		"lines", len(lines),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
