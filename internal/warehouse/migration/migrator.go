// Package migration applies the embedded SQL migrations that create the
// emissions source tables. It wraps golang-migrate with an iofs source so the
// migration scripts ship inside the binary.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse"
)

// MigrationsTable is the bookkeeping table golang-migrate maintains.
const MigrationsTable = "emissions_schema_migrations"

// Migrator applies schema migrations over a scoped warehouse connection.
type Migrator struct {
	connector warehouse.Connector
}

// NewMigrator creates a Migrator bound to the given connector.
func NewMigrator(connector warehouse.Connector) *Migrator {
	return &Migrator{connector: connector}
}

// databaseDriver builds the migrate/v4 database driver matching the
// configured warehouse driver.
func (m *Migrator) databaseDriver(sqlDB *sql.DB) (database.Driver, error) {
	switch m.connector.Driver() {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: MigrationsTable})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: MigrationsTable})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{MigrationsTable: MigrationsTable})
	default:
		return nil, fmt.Errorf("unsupported driver for migration: %s", m.connector.Driver())
	}
}

// Up applies all pending migrations found under path in migrationFS.
func (m *Migrator) Up(ctx context.Context, migrationFS fs.FS, path string) error {
	return warehouse.WithConnection(ctx, m.connector, func(conn warehouse.Connection) error {
		sqlDB, err := conn.SQLDB()
		if err != nil {
			return fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}

		sourceDriver, err := iofs.New(migrationFS, path)
		if err != nil {
			return fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
		}

		dbDriver, err := m.databaseDriver(sqlDB)
		if err != nil {
			return fmt.Errorf("failed to create database driver: %w", err)
		}

		mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, m.connector.Driver(), dbDriver)
		if err != nil {
			return fmt.Errorf("failed to create migrate instance: %w", err)
		}

		logger.Infof("Applying pending migrations (path: %s, table: %s).", path, MigrationsTable)
		if err := mInstance.Up(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration failed (driver: %s, path: %s): %w", m.connector.Driver(), path, err)
		}
		logger.Infof("Migrations up to date.")
		return nil
	})
}
