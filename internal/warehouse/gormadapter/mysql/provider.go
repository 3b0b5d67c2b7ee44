// Package mysql registers the MySQL dialector with the gormadapter registry.
package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse/gormadapter"
)

func init() {
	gormadapter.RegisterDialector("mysql", func(cfg config.WarehouseConfig) (gorm.Dialector, error) {
		// parseTime maps DATETIME columns to time.Time, which the aligner
		// requires for the time axis.
		connStr := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		)
		return mysql.Open(connStr), nil
	})
}
