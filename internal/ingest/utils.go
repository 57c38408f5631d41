package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/optimo/constants"
)

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func extSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return constants.AllowedExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
