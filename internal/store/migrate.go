package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite3/*.sql
var migrationsFS embed.FS

// Migrate applies all pending migrations for the handle's dialect.
// The migrator is not closed: closing it would close d.Client as well.
func Migrate(d *DB) error {
	m, err := newMigrator(d)
	if err != nil {
		return err
	}
	return up(m)
}

// MigrateDSN opens a dedicated handle, applies migrations and releases it.
func MigrateDSN(ctx context.Context, driver, dsn string) error {
	d, err := Open(ctx, driver, dsn)
	if err != nil {
		return err
	}
	m, err := newMigrator(d)
	if err != nil {
		_ = d.Close()
		return err
	}
	defer m.Close()
	return up(m)
}

func newMigrator(d *DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+string(d.Dialect))
	if err != nil {
		return nil, fmt.Errorf("store: migration source: %w", err)
	}

	var driver database.Driver
	switch d.Dialect {
	case Postgres:
		driver, err = postgres.WithInstance(d.Client, &postgres.Config{})
	case SQLite:
		driver, err = sqlite3.WithInstance(d.Client, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("store: no migrations for %q", d.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("store: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(d.Dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("store: migrator: %w", err)
	}
	return m, nil
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}
