// Package storage opens the local sqlite database backing the durable queue
// and the recovered auth artifacts, and keeps its schema current via
// embedded goose migrations.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations applies all pending migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, "migrations")
}

// Open opens (creating if needed) the local database at dsn and migrates it.
// The sqlite handle is limited to one open connection: every queue mutation
// is a read-modify-write transaction and the serialized writer keeps those
// from interleaving.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate local storage: %w", err)
	}

	return db, nil
}
