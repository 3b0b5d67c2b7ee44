// Package warehouse defines the connection abstraction through which the
// emissions data core talks to the SQL warehouse. Connections are scoped to a
// single operation: acquired, used and released, never pooled across callers.
package warehouse

import (
	"context"
	"database/sql"

	"github.com/hashicorp/go-multierror"

	"github.com/Gkaczkowski/emissions-app/internal/table"
)

// Connection represents an open warehouse session. It is valid for the
// duration of one operation and must be closed by the owner.
type Connection interface {
	// Query executes a SQL string and returns the result as a Table whose
	// column names are exactly the names reported by the result metadata.
	// Row order is whatever the warehouse returned.
	Query(ctx context.Context, query string) (*table.Table, error)
	// Exec executes a SQL statement that returns no rows.
	Exec(ctx context.Context, statement string) error
	// SQLDB exposes the underlying *sql.DB for collaborators that need a raw
	// handle, such as the migration runner.
	SQLDB() (*sql.DB, error)
	// Close releases the session.
	Close() error
}

// Connector establishes warehouse connections. Each Open call yields an
// independent session.
type Connector interface {
	Open(ctx context.Context) (Connection, error)
	// Driver returns the configured driver name ("postgres", "mysql", "sqlite").
	Driver() string
}

// WithConnection opens a connection, invokes fn, and guarantees release on
// all exit paths. A Close failure is joined onto fn's error.
func WithConnection(ctx context.Context, c Connector, fn func(Connection) error) error {
	conn, err := c.Open(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	result = multierror.Append(result, fn(conn))
	result = multierror.Append(result, conn.Close())
	return result.ErrorOrNil()
}
