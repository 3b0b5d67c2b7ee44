// Package gormadapter implements the warehouse connection abstraction on top
// of GORM. Concrete drivers register a DialectorFactory from their own
// subpackage init, so the set of linked drivers is decided by the importing
// binary.
package gormadapter

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/support/exception"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
	"github.com/Gkaczkowski/emissions-app/internal/table"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse"
)

const moduleName = "warehouse"

// DialectorFactory builds a gorm.Dialector from warehouse settings.
type DialectorFactory func(cfg config.WarehouseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given driver name.
// Called from driver subpackage init functions.
func RegisterDialector(driver string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[driver]; exists {
		logger.Warnf("Dialector for driver '%s' already registered. Overwriting.", driver)
	}
	dialectorRegistry[driver] = factory
}

// getDialectorFactory retrieves the DialectorFactory for a driver name.
func getDialectorFactory(driver string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[driver]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for driver: %s (missing blank import?)", driver)
	}
	return factory, nil
}

// Connector opens per-operation GORM sessions against the configured
// warehouse.
type Connector struct {
	cfg config.WarehouseConfig
}

// NewConnector creates a Connector for the given warehouse settings.
func NewConnector(cfg config.WarehouseConfig) *Connector {
	return &Connector{cfg: cfg}
}

// Driver returns the configured driver name.
func (c *Connector) Driver() string {
	return c.cfg.Driver
}

// Open establishes a new warehouse session. Open faults are classified as
// connection errors.
func (c *Connector) Open(ctx context.Context) (warehouse.Connection, error) {
	factory, err := getDialectorFactory(c.cfg.Driver)
	if err != nil {
		return nil, exception.NewConnectionError(moduleName, "unsupported warehouse driver", err)
	}

	dialector, err := factory(c.cfg)
	if err != nil {
		return nil, exception.NewConnectionError(moduleName, "failed to build dialector", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, exception.NewConnectionError(moduleName, fmt.Sprintf("failed to open %s connection", c.cfg.Driver), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, exception.NewConnectionError(moduleName, "failed to obtain underlying sql.DB", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, exception.NewConnectionError(moduleName, "warehouse unreachable", err)
	}

	logger.Debugf("Opened %s warehouse connection.", c.cfg.Driver)
	return &gormConnection{db: db}, nil
}

// NewGormConnection wraps an already-open gorm.DB as a warehouse Connection.
// Used by tests that drive GORM with a mocked sql.DB.
func NewGormConnection(db *gorm.DB) warehouse.Connection {
	return &gormConnection{db: db}
}

// gormConnection implements warehouse.Connection over a gorm.DB.
type gormConnection struct {
	db *gorm.DB
}

// Query executes a raw SQL string and materializes the full result set.
// Column names are taken verbatim from the result metadata; cell values are
// whatever the driver produced, with []byte normalized to string.
func (c *gormConnection) Query(ctx context.Context, query string) (*table.Table, error) {
	rows, err := c.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, exception.NewQueryError(moduleName, fmt.Sprintf("query failed: %s", query), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, exception.NewQueryError(moduleName, "failed to read result metadata", err)
	}

	t, err := table.New(cols)
	if err != nil {
		return nil, exception.NewQueryError(moduleName, "invalid result metadata", err)
	}

	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, exception.NewQueryError(moduleName, "failed to scan result row", err)
		}
		row := make([]interface{}, len(cols))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		if err := t.AppendRow(row); err != nil {
			return nil, exception.NewQueryError(moduleName, "failed to append result row", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, exception.NewQueryError(moduleName, "result iteration failed", err)
	}
	return t, nil
}

// Exec executes a statement that returns no rows.
func (c *gormConnection) Exec(ctx context.Context, statement string) error {
	if err := c.db.WithContext(ctx).Exec(statement).Error; err != nil {
		return exception.NewQueryError(moduleName, fmt.Sprintf("statement failed: %s", statement), err)
	}
	return nil
}

// SQLDB returns the underlying *sql.DB.
func (c *gormConnection) SQLDB() (*sql.DB, error) {
	return c.db.DB()
}

// Close releases the underlying sql.DB.
func (c *gormConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
