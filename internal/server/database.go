package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/optimo/internal/common"
	repo "github.com/joseph-ayodele/optimo/internal/repository"
)

// ConnectDB opens the SQL mirror described by cfg, pings it and makes sure the
// decision table exists.
func ConnectDB(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*repo.DB, repo.DecisionRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to database", "dsn", redactDSN(cfg.DSN))
	db, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		DialTimeout:     cfg.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	if err := PingDB(ctx, db, logger, cfg.DialTimeout); err != nil {
		db.Close(logger)
		return nil, nil, err
	}

	decisions := repo.NewDecisionRepository(db, logger)
	if err := decisions.Migrate(ctx); err != nil {
		db.Close(logger)
		return nil, nil, err
	}

	logger.Info("successfully connected to database", "dialect", db.Dialect())
	return db, decisions, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *slog.Logger, timeout time.Duration) error {
	logger.Debug("pinging database")
	if err := db.HealthCheck(ctx, timeout); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// CloseDB closes the database connections gracefully
func CloseDB(db *repo.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	logger.Info("closing database connections")
	db.Close(logger)
	logger.Info("database connections closed")
}
