package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/optimo/internal/common"
)

// TesseractConfig configures the tesseract command line engine.
type TesseractConfig struct {
	Bin         string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text; 0 = engine default
	OEM         int // 1 = LSTM; leave 0 to use default

	// TSV asks tesseract for tsv output and fills per-line confidence.
	TSV bool
}

// Tesseract runs the tesseract CLI once per request.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Bin == "" {
		cfg.Bin = "tesseract"
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize invokes `tesseract <input> <outbase> -l <lang> [options] [tsv]` and reads
// <outbase>.txt (or .tsv) back.
func (t *Tesseract) Recognize(ctx context.Context, req Request) (Document, error) {
	args := []string{req.Input, req.OutBase, "-l", req.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	ext := ".txt"
	if t.cfg.TSV {
		args = append(args, "tsv")
		ext = ".tsv"
	}

	_, errb, err := t.runner.Run(ctx, t.cfg.Bin, t.logger, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return Document{}, fmt.Errorf("%w: %s: %w: %s", common.ErrEngineInvocation, t.cfg.Bin, err, truncate(msg, 512))
		}
		return Document{}, fmt.Errorf("%w: %s: %w", common.ErrEngineInvocation, t.cfg.Bin, err)
	}

	outPath := req.OutBase + ext
	raw, err := os.ReadFile(outPath)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", common.ErrEngineOutput, outPath, err)
	}

	var lines []Line
	if t.cfg.TSV {
		lines = ParseTSV(string(raw))
	} else {
		lines = TextToLines(string(raw))
	}
	return SinglePage(req.Input, lines), nil
}

type tsvLineKey struct {
	page, block, par, line int
}

// ParseTSV groups tesseract tsv word rows into lines. A line's confidence is the
// mean of its word confidences scaled to 0..1; rows with conf -1 carry no words.
func ParseTSV(s string) []Line {
	type acc struct {
		words []string
		sum   float64
		n     int
	}
	var order []tsvLineKey
	groups := map[tsvLineKey]*acc{}

	for i, ln := range strings.Split(reCRLF.ReplaceAllString(s, "\n"), "\n") {
		if i == 0 || len(ln) == 0 { // header
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		if cols[0] != "5" { // word level
			continue
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		key := tsvLineKey{atoi(cols[1]), atoi(cols[2]), atoi(cols[3]), atoi(cols[4])}
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
			order = append(order, key)
		}
		g.words = append(g.words, word)
		if v, err := strconv.ParseFloat(cols[10], 64); err == nil && v >= 0 {
			g.sum += v
			g.n++
		}
	}

	lines := make([]Line, 0, len(order))
	for _, key := range order {
		g := groups[key]
		line := Line{Text: strings.Join(g.words, " ")}
		if g.n > 0 {
			c := g.sum / float64(g.n) / 100.0
			if c > 1 {
				c = 1
			}
			line.Confidence = &c
		}
		lines = append(lines, line)
	}
	return lines
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
