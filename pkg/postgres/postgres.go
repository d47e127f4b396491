package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samandr77/microservices/onboarding/migrations"

	_ "github.com/jackc/pgx/v5/stdlib" //nolint:blank-imports

	goose "github.com/pressly/goose/v3"
)

const (
	pingAttempts = 10
	pingBackoff  = 500 * time.Millisecond
)

// Connect opens the pool backing accounts, entities and verification codes,
// waiting for the database to accept connections.
func Connect(ctx context.Context, dsn string, maxConn int32) (*pgxpool.Pool, error) {
	dbCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if maxConn > 0 {
		dbCfg.MaxConns = maxConn
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}

	for attempt := 1; attempt <= pingAttempts; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			slog.InfoContext(ctx, "postgres connected",
				"host", dbCfg.ConnConfig.Host,
				"database", dbCfg.ConnConfig.Database,
				"max_conns", dbCfg.MaxConns,
			)

			return pool, nil
		}

		slog.WarnContext(ctx, "postgres not ready", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ping: %w", ctx.Err())
		case <-time.After(pingBackoff):
		}
	}

	pool.Close()

	return nil, fmt.Errorf("ping after %d attempts: %w", pingAttempts, err)
}

// UpMigrations applies the embedded schema and logs the resulting version.
func UpMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	err = goose.SetDialect("postgres")
	if err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	before, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	err = goose.Up(db, ".")
	if err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return fmt.Errorf("up: %w", err)
	}

	after, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	if after != before {
		slog.Info("schema migrated", "from_version", before, "to_version", after)
	} else {
		slog.Debug("schema up to date", "version", after)
	}

	return nil
}
