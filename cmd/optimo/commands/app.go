package commands

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/printer"
)

const localStore = "local"

// app is the resolved process state every command starts from.
type app struct {
	cfg    *common.Config
	paths  common.Paths
	logger *slog.Logger
	out    *printer.Printer
}

func newPrinter(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// loadApp layers flags over config file and environment, validates, and
// prepares the data directory.
func loadApp(cmd *cobra.Command, g *globalFlags) (*app, error) {
	cfg, err := common.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dataDir != "" {
		cfg.Data.Dir = g.dataDir
	}
	if g.store != "" {
		cfg.Store.DSN = g.store
	}
	if g.redisURL != "" {
		cfg.Redis.URL = g.redisURL
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paths, err := common.ResolvePaths(cfg.Data)
	if err != nil {
		return nil, common.NewAppError(common.StageConfig, "data directory", err)
	}
	if cfg.Store.DSN == localStore {
		cfg.Store.DSN = paths.StoreFile
	}

	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	logger.Debug("configuration loaded",
		"data_dir", paths.Data,
		"log_file", paths.LogFile,
		"engine", cfg.OCR.Engine,
		"variants", strings.Join(cfg.OCR.Variants, ","),
		"workers", cfg.Pipeline.Workers,
	)

	return &app{cfg: cfg, paths: paths, logger: logger, out: newPrinter(cmd)}, nil
}

// newLogger builds the slog handler. Text output drops time and level to keep
// CLI logs compact.
func newLogger(cfg common.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
