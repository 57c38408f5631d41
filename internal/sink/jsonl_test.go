package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/decision"
)

func rec(source string, lines int) decision.Record {
	return decision.Record{
		Source:   source,
		Decision: decision.Classify(lines),
		Lines:    lines,
		Preview:  strings.Repeat("riga ", lines),
	}
}

func TestJSONL_CreatesFileAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "observations.jsonl")
	s := NewJSONL(path, nil)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, rec("a.png", 2)))
	require.NoError(t, s.Append(ctx, rec("b.png", 0)))

	got, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.png", got[0].Source)
	assert.Equal(t, constants.DecisionEmpty, got[1].Decision)
}

func TestJSONL_ConcurrentAppendsNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.jsonl")
	s := NewJSONL(path, nil)

	const writers, each = 16, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				assert.NoError(t, s.Append(context.Background(), rec(fmt.Sprintf("doc-%d-%d.png", w, i), 40)))
			}
		}(w)
	}
	wg.Wait()

	n := 0
	err := Scan(path, func(_ int, raw []byte) error {
		n++
		return decision.ValidateLine(raw)
	})
	require.NoError(t, err)
	assert.Equal(t, writers*each, n)
}

func TestJSONL_AppendAfterCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.jsonl")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewJSONL(path, nil).Append(ctx, rec("a.png", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.NoFileExists(t, path)
}

func TestJSONL_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := NewJSONL(filepath.Join(blocker, "observations.jsonl"), nil).Append(context.Background(), rec("a.png", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func TestReadJSONL(t *testing.T) {
	t.Run("missing file is empty", func(t *testing.T) {
		got, err := ReadJSONL(filepath.Join(t.TempDir(), "none.jsonl"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("bad line is reported with its number", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "observations.jsonl")
		content := `{"source":"a","decision":"empty","lines":0,"preview":""}` + "\n\n" + `{"source":` + "\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := ReadJSONL(path)
		var lineErr *LineError
		require.True(t, errors.As(err, &lineErr))
		assert.Equal(t, 3, lineErr.Line)
	})

	t.Run("last line without newline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "observations.jsonl")
		require.NoError(t, os.WriteFile(path, []byte(`{"source":"a","decision":"empty","lines":0,"preview":""}`), 0o644))

		got, err := ReadJSONL(path)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
