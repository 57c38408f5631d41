package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/optimo/internal/common"
)

// ExpandPaths resolves the batch input. Files are kept as given, in order,
// whatever their extension. Directories are walked in lexical order and
// contribute only files with an allowed extension. Hidden entries found while
// walking are skipped unless opts.IncludeHidden. A path seen twice (by
// absolute path) is kept once, at its first position.
func ExpandPaths(paths []string, opts Options) ([]string, Stats, error) {
	var (
		out   []string
		stats Stats
		seen  = map[string]struct{}{}
		exts  = extSet(opts.Exts)
	)

	add := func(p string) {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		if _, dup := seen[abs]; dup {
			stats.Duplicates++
			return
		}
		seen[abs] = struct{}{}
		stats.Matched++
		out = append(out, p)
	}

	for _, root := range paths {
		if strings.TrimSpace(root) == "" {
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, stats, common.NewAppError(common.StageConfig, fmt.Sprintf("input %s", root), errors.Join(common.ErrInvalidInput, err))
		}
		if !info.IsDir() {
			stats.Scanned++
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path != root && !opts.IncludeHidden && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			stats.Scanned++
			if allowed(path, exts) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, stats, common.NewAppError(common.StageConfig, fmt.Sprintf("walk %s", root), errors.Join(common.ErrInvalidInput, err))
		}
	}
	return out, stats, nil
}
