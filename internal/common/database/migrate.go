package database

import (
	"embed"
	stderrors "errors"
	"fmt"

	"franchise-notifications/internal/common/errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every pending up migration to the client's database.
func (c *PostgresClient) Migrate() error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return errors.NewMigrationFailedError(fmt.Errorf("load migrations: %w", err))
	}

	driver, err := postgres.WithInstance(c.DB.DB, &postgres.Config{})
	if err != nil {
		return errors.NewMigrationFailedError(fmt.Errorf("migration driver: %w", err))
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return errors.NewMigrationFailedError(fmt.Errorf("migrator: %w", err))
	}

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.NewMigrationFailedError(fmt.Errorf("apply migrations: %w", err))
	}
	return nil
}
