//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/optimo/internal/common"
)

func init() {
	registerEngine("gosseract", func(cfg TesseractConfig, logger *slog.Logger) Engine {
		return NewGosseract(cfg, logger)
	})
}

// Gosseract recognizes text in-process through libtesseract. Unlike the CLI
// engine it always reports per-line confidence.
type Gosseract struct {
	cfg           TesseractConfig
	clientFactory func() *gosseract.Client
	logger        *slog.Logger
}

func NewGosseract(cfg TesseractConfig, logger *slog.Logger) *Gosseract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gosseract{cfg: cfg, clientFactory: gosseract.NewClient, logger: logger}
}

func (g *Gosseract) Name() string { return "gosseract" }

func (g *Gosseract) Recognize(ctx context.Context, req Request) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, fmt.Errorf("%w: %w", common.ErrEngineInvocation, err)
	}
	c := g.clientFactory()
	defer c.Close()

	if g.cfg.TessdataDir != "" {
		c.TessdataPrefix = g.cfg.TessdataDir
	}
	if err := c.SetLanguage(strings.Split(req.Lang, "+")...); err != nil {
		return Document{}, fmt.Errorf("%w: set languages: %w", common.ErrEngineInvocation, err)
	}
	if g.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(g.cfg.PSM)); err != nil {
			return Document{}, fmt.Errorf("%w: set psm: %w", common.ErrEngineInvocation, err)
		}
	}
	if err := c.SetImage(req.Input); err != nil {
		return Document{}, fmt.Errorf("%w: set image: %w", common.ErrEngineInvocation, err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return Document{}, fmt.Errorf("%w: recognize: %w", common.ErrEngineOutput, err)
	}
	lines := make([]Line, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		conf := b.Confidence / 100.0
		lines = append(lines, Line{Text: text, Confidence: &conf})
	}
	g.logger.Debug("gosseract ok", "input", req.Input, "lines", len(lines))
	return SinglePage(req.Input, lines), nil
}
