package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/ocr"
)

// runocr runs one OCR variant of one file and logs the recognized lines.
// Handy for tuning engine flags without touching the decision log.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 || len(os.Args) > 3 {
		logger.Error("usage", "cmd", "runocr <file> [original|high_contrast|rotated]")
		os.Exit(2)
	}
	source := os.Args[1]
	variant := constants.VariantOriginal
	if len(os.Args) == 3 {
		if !constants.IsValidVariant(os.Args[2]) {
			logger.Error("unknown variant", "variant", os.Args[2])
			os.Exit(2)
		}
		variant = constants.Variant(os.Args[2])
	}

	cfg, err := common.LoadConfig(os.Getenv("OPTIMO_CONFIG"))
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	engine, err := ocr.NewEngine(cfg.OCR.Engine, ocr.TesseractConfig{
		Bin:         cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         cfg.OCR.PSM,
		OEM:         cfg.OCR.OEM,
		TSV:         cfg.OCR.TSVConfidence,
	}, logger)
	if err != nil {
		logger.Error("engine", "error", err)
		os.Exit(1)
	}

	workDir, err := os.MkdirTemp("", "runocr-")
	if err != nil {
		logger.Error("work dir", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(workDir)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	doc, err := ocr.NewProducer(engine, logger).Produce(ctx, ocr.Job{
		Source:  source,
		WorkDir: workDir,
		Lang:    cfg.OCR.Lang,
		Variant: variant,
	})
	dur := time.Since(start)
	if err != nil {
		logger.Error("ocr failed", "stage", common.StageOf(err), "error", err, "duration_ms", dur.Milliseconds())
		cancel()
		_ = os.RemoveAll(workDir)
		os.Exit(1)
	}

	for _, pg := range doc.Pages {
		for i, l := range pg.Lines {
			logger.Info("line", "n", i+1, "text", l.Text, "confidence", l.ConfidenceOrZero())
		}
	}
	logger.Info("ocr OK",
		"engine", engine.Name(),
		"variant", variant,
		"lines", doc.LineCount(),
		"duration_ms", dur.Milliseconds(),
	)
}
