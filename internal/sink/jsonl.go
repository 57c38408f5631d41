package sink

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/decision"
)

// JSONL appends one JSON object per line to a file. Every append opens the
// file in append mode and writes the whole line in one call under a mutex, so
// concurrent appenders never interleave.
type JSONL struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

func NewJSONL(path string, logger *slog.Logger) *JSONL {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONL{path: path, logger: logger}
}

// Path returns the log file location.
func (s *JSONL) Path() string { return s.path }

func (s *JSONL) Append(ctx context.Context, rec decision.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrPersistence, rec.Source, err)
	}
	line, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: create log dir: %w", common.ErrPersistence, err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", common.ErrPersistence, s.path, err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write %s: %w", common.ErrPersistence, s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", common.ErrPersistence, s.path, err)
	}

	s.logger.Debug("decision appended", "path", s.path, "source", rec.Source, "decision", rec.Decision)
	return nil
}

func (s *JSONL) Close() error { return nil }

// LineError reports a log line that could not be decoded or validated.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// Scan walks the log line by line. fn receives the 1-based line number and the
// raw bytes without the newline; blank lines are skipped. A missing file is an
// empty log.
func Scan(path string, fn func(n int, raw []byte) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for n := 1; ; n++ {
		raw, err := r.ReadBytes('\n')
		if len(bytes.TrimSpace(raw)) > 0 {
			if ferr := fn(n, bytes.TrimRight(raw, "\r\n")); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ReadJSONL decodes every record in the log.
func ReadJSONL(path string) ([]decision.Record, error) {
	var out []decision.Record
	err := Scan(path, func(n int, raw []byte) error {
		rec, err := decision.ParseLine(raw)
		if err != nil {
			return &LineError{Line: n, Err: err}
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}
