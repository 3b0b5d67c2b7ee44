package app

import (
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/Gkaczkowski/emissions-app/internal/cache"
	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/emissions"
	"github.com/Gkaczkowski/emissions-app/internal/export"
	"github.com/Gkaczkowski/emissions-app/internal/metrics"
	"github.com/Gkaczkowski/emissions-app/internal/upload"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse/gormadapter"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse/migration"
)

// NewConnector provides the warehouse connector from configuration.
func NewConnector(cfg *config.Config) warehouse.Connector {
	return gormadapter.NewConnector(cfg.Emissions.Warehouse)
}

// NewLocation resolves the configured display timezone.
func NewLocation(cfg *config.Config) (*time.Location, error) {
	loc, err := time.LoadLocation(cfg.Emissions.System.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Emissions.System.Timezone, err)
	}
	return loc, nil
}

// NewQueryCache provides the TTL query cache from configuration.
func NewQueryCache(cfg *config.Config, recorder *metrics.Recorder) *cache.QueryCache {
	return cache.New(time.Duration(cfg.Emissions.Cache.TTLHours)*time.Hour, recorder)
}

// NewService provides the emissions service bound to the configured schema
// and timezone.
func NewService(fetcher *emissions.Fetcher, cfg *config.Config, loc *time.Location) *emissions.Service {
	return emissions.NewService(fetcher, cfg.Emissions.Warehouse.Schema, loc)
}

// NewUploader provides the bulk loader bound to the configured database.
func NewUploader(connector warehouse.Connector, cfg *config.Config, recorder *metrics.Recorder) *upload.Uploader {
	return upload.NewUploader(connector, cfg.Emissions.Warehouse.Database, cfg.Emissions.Upload.TempDir, recorder)
}

// NewExporter provides the Parquet archive exporter.
func NewExporter(cfg *config.Config) *export.Exporter {
	return export.NewExporter(cfg.Emissions.Storage, cfg.Emissions.Export.OutputBaseDir)
}

// Module wires the data core components into the Fx graph.
var Module = fx.Options(
	metrics.Module,
	fx.Provide(
		NewConnector,
		NewLocation,
		NewQueryCache,
		emissions.NewFetcher,
		NewService,
		NewUploader,
		migration.NewMigrator,
		NewExporter,
		NewJobRunner,
	),
)
