package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fluentphrases/internal/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// OpenPostgres opens a pooled connection, verifies it and applies the
// embedded migrations.
func OpenPostgres(ctx context.Context, dsn string, development bool, logger zerolog.Logger) (*sql.DB, error) {
	dsn = normalizeDSN(dsn, development)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Msg("Database migrations applied")
	return db, nil
}

// RunMigrations applies every pending goose migration.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// normalizeDSN disables SSL for local development and forces the simple
// query protocol elsewhere, since hosted deployments sit behind a
// transaction pooler that cannot serve prepared statements.
func normalizeDSN(dsn string, development bool) string {
	isURL := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	appendParam := func(dsn, param string) string {
		if !isURL {
			return dsn + " " + param
		}
		if strings.Contains(dsn, "?") {
			return dsn + "&" + param
		}
		return dsn + "?" + param
	}

	if development && !strings.Contains(dsn, "sslmode") {
		dsn = appendParam(dsn, "sslmode=disable")
	}
	if !development && !strings.Contains(dsn, "default_query_exec_mode") {
		dsn = appendParam(dsn, "default_query_exec_mode=simple_protocol")
	}
	return dsn
}
