// Package storage abstracts the archive storage backends the exporter writes
// to. A Connection is scoped to one operation, like warehouse connections.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Gkaczkowski/emissions-app/internal/config"
)

// Connection is an open storage backend session.
type Connection interface {
	// Upload writes data under objectName. contentType is advisory; local
	// backends ignore it.
	Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error
	// Download opens objectName for reading. The caller closes the reader.
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	// Delete removes objectName.
	Delete(ctx context.Context, objectName string) error
	// List invokes fn for every object under prefix.
	List(ctx context.Context, prefix string, fn func(objectName string) error) error
	// Close releases the session.
	Close() error
}

// Open establishes a storage connection for the configured backend type.
func Open(ctx context.Context, cfg config.StorageConfig) (Connection, error) {
	switch cfg.Type {
	case "local":
		return newLocalConnection(cfg)
	case "gcs":
		return newGCSConnection(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
	}
}
