package store

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate applies all pending content-table migrations for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(s.Dialect.GooseDialect()); err != nil {
		return fmt.Errorf("setting dialect for migrations: %w", err)
	}

	if err := goose.UpContext(ctx, s.DB.DB, s.Dialect.MigrationsDir()); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
