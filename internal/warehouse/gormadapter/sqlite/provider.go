// Package sqlite registers the SQLite dialector with the gormadapter
// registry. Mostly useful for local development.
package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse/gormadapter"
)

func init() {
	gormadapter.RegisterDialector("sqlite", func(cfg config.WarehouseConfig) (gorm.Dialector, error) {
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite driver requires warehouse.path")
		}
		return sqlite.Open(cfg.Path), nil
	})
}
