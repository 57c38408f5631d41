package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/optimo/internal/common"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestExpandPaths(t *testing.T) {
	root := t.TempDir()
	a := touch(t, filepath.Join(root, "scans", "a.png"))
	b := touch(t, filepath.Join(root, "scans", "b.PDF"))
	touch(t, filepath.Join(root, "scans", "notes.txt"))
	touch(t, filepath.Join(root, "scans", ".hidden.png"))
	touch(t, filepath.Join(root, "scans", ".cache", "c.png"))
	d := touch(t, filepath.Join(root, "scans", "sub", "d.tiff"))
	loose := touch(t, filepath.Join(root, "loose.txt"))

	got, stats, err := ExpandPaths([]string{loose, filepath.Join(root, "scans"), a}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{loose, a, b, d}, got, "explicit files kept whatever the extension, dirs walked lexically")
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(1), stats.Duplicates)
}

func TestExpandPaths_IncludeHiddenAndExts(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.png"))
	h := touch(t, filepath.Join(root, ".h.jpg"))
	j := touch(t, filepath.Join(root, "j.JPG"))

	got, _, err := ExpandPaths([]string{root}, Options{Exts: []string{".jpg"}, IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{h, j}, got)
}

func TestExpandPaths_Empty(t *testing.T) {
	got, stats, err := ExpandPaths(nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, stats.Matched)
}

func TestExpandPaths_MissingInput(t *testing.T) {
	_, _, err := ExpandPaths([]string{filepath.Join(t.TempDir(), "nope.png")}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Equal(t, common.StageConfig, common.StageOf(err))
}

func TestHelpers(t *testing.T) {
	assert.True(t, AllowedExt(".PNG"))
	assert.True(t, AllowedExt("webp"))
	assert.False(t, AllowedExt(".txt"))
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden("/x/a.png"))
}

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	existing := touch(t, filepath.Join(root, "old.png"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, existing, recv(t, events))

	touch(t, filepath.Join(root, "ignored.txt"))
	fresh := touch(t, filepath.Join(root, "new.jpg"))
	assert.Equal(t, fresh, recv(t, events))

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
