package archive

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// The archive schema is managed with embedded, versioned migrations so an
// old archive file opened by a newer build is upgraded in place.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

func (a *Archive) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("archive: loading embedded migrations: %w", err)
	}
	drv, err := sqlite.WithInstance(a.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("archive: preparing migration driver: %w", err)
	}
	// Note: the migrate instance is not closed because closing it would
	// close the underlying DB connection the archive keeps using.
	return migrate.NewWithInstance("iofs", src, "sqlite", drv)
}

// migrateUp applies all pending migrations. Already being at the latest
// version is not an error.
func (a *Archive) migrateUp() error {
	m, err := a.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("archive: migrating schema: %w", err)
	}
	return nil
}

// SchemaVersion returns the archive's current migration version. A fresh
// database that has not been migrated yet reports 0.
func (a *Archive) SchemaVersion() (uint, error) {
	m, err := a.newMigrate()
	if err != nil {
		return 0, err
	}
	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("archive: reading schema version: %w", err)
	}
	return version, nil
}
