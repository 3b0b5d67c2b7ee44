package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
)

// localConnection implements Connection over a base directory on the local
// file system.
type localConnection struct {
	baseDir string
}

// newLocalConnection validates the base directory, creating it if absent.
func newLocalConnection(cfg config.StorageConfig) (Connection, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("local storage: base_dir must be specified")
	}
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
				return nil, fmt.Errorf("local storage: failed to create base_dir '%s': %w", cfg.BaseDir, err)
			}
		} else {
			return nil, fmt.Errorf("local storage: failed to stat base_dir '%s': %w", cfg.BaseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local storage: base_dir '%s' is not a directory", cfg.BaseDir)
	}
	return &localConnection{baseDir: cfg.BaseDir}, nil
}

// resolvePath joins objectName onto the base directory, rejecting path
// escapes.
func (c *localConnection) resolvePath(objectName string) (string, error) {
	full := filepath.Join(c.baseDir, filepath.FromSlash(objectName))
	rel, err := filepath.Rel(c.baseDir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("object name '%s' escapes base directory", objectName)
	}
	return full, nil
}

func (c *localConnection) Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error {
	full, err := c.resolvePath(objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", full, err)
	}
	file, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create file '%s': %w", full, err)
	}
	defer file.Close()
	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write '%s': %w", full, err)
	}
	logger.Debugf("Uploaded object to '%s' (local storage).", full)
	return nil
}

func (c *localConnection) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	full, err := c.resolvePath(objectName)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", full, err)
	}
	return file, nil
}

func (c *localConnection) Delete(ctx context.Context, objectName string) error {
	full, err := c.resolvePath(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("failed to delete '%s': %w", full, err)
	}
	return nil
}

func (c *localConnection) List(ctx context.Context, prefix string, fn func(objectName string) error) error {
	root, err := c.resolvePath(prefix)
	if err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.baseDir, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
}

// Close does nothing for the local backend.
func (c *localConnection) Close() error {
	return nil
}
