package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/decision"
	"github.com/joseph-ayodele/optimo/internal/repository"
	"github.com/joseph-ayodele/optimo/internal/sink"
)

const (
	decisionsSheet = "Decisions"
	summarySheet   = "Summary"
	previewCell    = 140
)

// Row is one exported record. RecordedAt is zero for rows read from the log.
type Row struct {
	decision.Record
	RecordedAt time.Time
}

// Source yields the rows to export, oldest first.
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
}

// LogSource reads the JSONL decision log, optionally keeping one decision.
type LogSource struct {
	Path     string
	Decision constants.Decision
}

func (s LogSource) Rows(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs, err := sink.ReadJSONL(s.Path)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		if s.Decision != "" && r.Decision != s.Decision {
			continue
		}
		rows = append(rows, Row{Record: r})
	}
	return rows, nil
}

// StoreSource reads the SQL mirror.
type StoreSource struct {
	Repo     repository.DecisionRepository
	Decision constants.Decision
}

func (s StoreSource) Rows(ctx context.Context) ([]Row, error) {
	recs, err := s.Repo.List(ctx, repository.ListFilter{Decision: s.Decision})
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(recs))
	for i, r := range recs {
		rows[i] = Row{Record: r.Record, RecordedAt: r.RecordedAt}
	}
	return rows, nil
}

// Service produces XLSX workbooks of decision records.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns a workbook (as bytes) with one row per record and a
// per-decision summary sheet.
func (s *Service) ExportXLSX(ctx context.Context, src Source) ([]byte, error) {
	start := time.Now()

	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", decisionsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(decisionsSheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"#", "Source", "Decision", "Lines", "Preview", "Recorded At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(decisionsSheet, cell, h)
	}

	counts := map[constants.Decision]int{}
	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(decisionsSheet, cell, v)
		}
		write(1, i+1)
		write(2, r.Source)
		write(3, string(r.Decision))
		write(4, r.Lines)
		write(5, truncate(r.Preview, previewCell))
		if !r.RecordedAt.IsZero() {
			write(6, r.RecordedAt.UTC().Format(time.RFC3339))
		} else {
			write(6, "")
		}
		counts[r.Decision]++
	}

	_ = f.SetColWidth(decisionsSheet, "A", "A", 6)
	_ = f.SetColWidth(decisionsSheet, "B", "B", 60)
	_ = f.SetColWidth(decisionsSheet, "C", "C", 16)
	_ = f.SetColWidth(decisionsSheet, "D", "D", 8)
	_ = f.SetColWidth(decisionsSheet, "E", "E", 80)
	_ = f.SetColWidth(decisionsSheet, "F", "F", 22)

	_ = f.SetCellValue(summarySheet, "A1", "Decision")
	_ = f.SetCellValue(summarySheet, "B1", "Documents")
	for i, d := range []constants.Decision{constants.DecisionConverged, constants.DecisionEmpty} {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+2), string(d))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+2), counts[d])
	}
	_ = f.SetCellValue(summarySheet, "A4", "total")
	_ = f.SetCellValue(summarySheet, "B4", len(rows))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// truncate cuts s to n runes, the last one being an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
