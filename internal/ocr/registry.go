package ocr

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/joseph-ayodele/optimo/internal/common"
)

type engineFactory func(cfg TesseractConfig, logger *slog.Logger) Engine

var (
	enginesMu sync.RWMutex
	engines   = map[string]engineFactory{
		"tesseract": func(cfg TesseractConfig, logger *slog.Logger) Engine {
			return NewTesseract(cfg, logger)
		},
	}
)

func registerEngine(name string, f engineFactory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[name] = f
}

// NewEngine builds the named engine. "gosseract" is only available in binaries
// built with the gosseract tag.
func NewEngine(name string, cfg TesseractConfig, logger *slog.Logger) (Engine, error) {
	enginesMu.RLock()
	f, ok := engines[name]
	enginesMu.RUnlock()
	if !ok {
		return nil, common.NewAppError(common.StageConfig, fmt.Sprintf("ocr engine %q not available (have %v)", name, EngineNames()), common.ErrInvalidInput)
	}
	return f(cfg, logger), nil
}

// EngineNames lists the engines compiled into this binary.
func EngineNames() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
