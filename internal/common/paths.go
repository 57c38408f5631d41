package common

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the resolved on-disk layout for one process.
type Paths struct {
	Data      string // <root>/data
	Artifacts string // <data>/ocrys, parent of per-document working directories
	LogFile   string // <data>/observations.jsonl
	StoreFile string // <data>/optimo.sqlite, default SQL mirror location
}

// ResolvePaths anchors the data directory to the working directory when relative
// and creates the directories it needs.
func ResolvePaths(cfg DataConfig) (Paths, error) {
	data := cfg.Dir
	if !filepath.IsAbs(data) {
		wd, err := os.Getwd()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve working directory: %w", err)
		}
		data = filepath.Join(wd, data)
	}
	p := Paths{
		Data:      data,
		Artifacts: filepath.Join(data, "ocrys"),
		LogFile:   filepath.Join(data, cfg.LogFile),
		StoreFile: filepath.Join(data, "optimo.sqlite"),
	}
	if err := os.MkdirAll(p.Artifacts, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create data directories: %w", err)
	}
	return p, nil
}
