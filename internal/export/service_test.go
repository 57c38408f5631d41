package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/decision"
	"github.com/joseph-ayodele/optimo/internal/repository"
	"github.com/joseph-ayodele/optimo/internal/sink"
)

func TestExportXLSX_FromLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	log := sink.NewJSONL(path, nil)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, decision.Record{Source: "a.png", Decision: constants.DecisionConverged, Lines: 2, Preview: "Totale 12"}))
	require.NoError(t, log.Append(ctx, decision.Record{Source: "b.png", Decision: constants.DecisionEmpty}))

	data, err := NewService(nil).ExportXLSX(ctx, LogSource{Path: path})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(decisionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"#", "Source", "Decision", "Lines", "Preview", "Recorded At"}, rows[0])
	assert.Equal(t, []string{"1", "a.png", "ocr_converged", "2", "Totale 12"}, rows[1])
	assert.Equal(t, "empty", rows[2][2])

	total, err := f.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	empty, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "1", empty)
}

func TestExportXLSX_FromStore(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: "sqlite://" + filepath.Join(t.TempDir(), "optimo.sqlite")}, nil)
	require.NoError(t, err)
	defer db.Close(nil)

	repo := repository.NewDecisionRepository(db, nil)
	require.NoError(t, repo.Migrate(ctx))
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	_, err = repo.Insert(ctx, decision.Record{Source: "a.png", Decision: constants.DecisionConverged, Lines: 1, Preview: "x"}, at)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, decision.Record{Source: "b.png", Decision: constants.DecisionEmpty}, at.Add(time.Second))
	require.NoError(t, err)

	data, err := NewService(nil).ExportXLSX(ctx, StoreSource{Repo: repo, Decision: constants.DecisionConverged})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(decisionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a.png", rows[1][1])
	assert.Equal(t, "2026-03-04T10:00:00Z", rows[1][5])
}

func TestExportXLSX_MissingLogIsEmpty(t *testing.T) {
	data, err := NewService(nil).ExportXLSX(context.Background(), LogSource{Path: filepath.Join(t.TempDir(), "none.jsonl")})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(decisionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestExportXLSX_CorruptLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0o644))

	_, err := NewService(nil).ExportXLSX(context.Background(), LogSource{Path: path})
	require.Error(t, err)
	var le *sink.LineError
	assert.ErrorAs(t, err, &le)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	long := strings.Repeat("è", 200)
	assert.Equal(t, 140, len([]rune(truncate(long, previewCell))))
}

func TestLogSource_DecisionFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	log := sink.NewJSONL(path, nil)
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, decision.Record{Source: "a.png", Decision: constants.DecisionConverged, Lines: 1, Preview: "x"}))
	require.NoError(t, log.Append(ctx, decision.Record{Source: "b.png", Decision: constants.DecisionEmpty}))

	rows, err := LogSource{Path: path, Decision: constants.DecisionEmpty}.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b.png", rows[0].Source)
}
