package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
)

// gcsConnection implements Connection over a Google Cloud Storage bucket.
type gcsConnection struct {
	client *gcs.Client
	bucket string
}

// newGCSConnection creates a GCS-backed connection. Credentials come from the
// configured service-account key file, or application default credentials
// when none is set.
func newGCSConnection(ctx context.Context, cfg config.StorageConfig) (Connection, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("gcs storage: bucket_name must be specified")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage: failed to create client: %w", err)
	}
	return &gcsConnection{client: client, bucket: cfg.BucketName}, nil
}

func (c *gcsConnection) Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error {
	w := c.client.Bucket(c.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", c.bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", c.bucket, objectName, err)
	}
	logger.Debugf("Uploaded object to gs://%s/%s.", c.bucket, objectName)
	return nil
}

func (c *gcsConnection) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	r, err := c.client.Bucket(c.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", c.bucket, objectName, err)
	}
	return r, nil
}

func (c *gcsConnection) Delete(ctx context.Context, objectName string) error {
	if err := c.client.Bucket(c.bucket).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", c.bucket, objectName, err)
	}
	return nil
}

func (c *gcsConnection) List(ctx context.Context, prefix string, fn func(objectName string) error) error {
	it := c.client.Bucket(c.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list gs://%s/%s*: %w", c.bucket, prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

func (c *gcsConnection) Close() error {
	return c.client.Close()
}
