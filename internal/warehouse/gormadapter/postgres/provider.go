// Package postgres registers the PostgreSQL dialector with the gormadapter
// registry. Importing it for side effects enables "postgres" as a warehouse
// driver.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse/gormadapter"
)

func init() {
	gormadapter.RegisterDialector("postgres", func(cfg config.WarehouseConfig) (gorm.Dialector, error) {
		connStr := connectionString(cfg)
		return postgres.Open(connStr), nil
	})
}

// connectionString builds a libpq-style DSN from warehouse settings.
func connectionString(cfg config.WarehouseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.Sslmode,
	)
}
