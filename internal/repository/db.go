package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// DB is an ent SQL driver over either a pgx pool (postgres:// DSNs) or a
// modernc SQLite database (file paths, file: URIs, :memory:).
type DB struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
}

// Dialect returns the ent dialect name in use.
func (db *DB) Dialect() string { return db.dialect }

// Driver exposes the ent driver for query builders.
func (db *DB) Driver() *entsql.Driver { return db.drv }

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the database named by cfg.DSN.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if isPostgresDSN(cfg.DSN) {
		return openPostgres(ctx, cfg, logger)
	}
	return openSQLite(cfg, logger)
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "dialect", dialect.Postgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "optimo"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for Ent
	sqlDB := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, sqlDB)

	logger.Info("successfully connected to database")
	return &DB{drv: drv, pool: pool, dialect: dialect.Postgres}, nil
}

func openSQLite(cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := strings.TrimPrefix(cfg.DSN, "sqlite://")
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: empty path")
	}
	logger.Info("opening sqlite database", "path", dsn)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection serializes writers and keeps :memory: databases shared
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	return &DB{drv: entsql.OpenDB(dialect.SQLite, sqlDB), dialect: dialect.SQLite}, nil
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("closing database connections")
	if db.drv != nil {
		if err := db.drv.Close(); err != nil {
			logger.Error("failed to close ent driver", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck pings the database.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.drv.DB().PingContext(ctx)
}
