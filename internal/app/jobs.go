package app

import (
	"context"
	"fmt"
	"os"

	"github.com/Gkaczkowski/emissions-app/internal/aggregate"
	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/emissions"
	"github.com/Gkaczkowski/emissions-app/internal/export"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
	"github.com/Gkaczkowski/emissions-app/internal/table"
	"github.com/Gkaczkowski/emissions-app/internal/upload"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse/migration"
)

// JobRunner dispatches the process job: compute aggregated series, bulk
// upload a CSV, apply migrations, or export Parquet archives.
type JobRunner struct {
	service      *emissions.Service
	uploader     *upload.Uploader
	migrator     *migration.Migrator
	exporter     *export.Exporter
	migrationsFS MigrationsFS
	schema       string
}

// NewJobRunner creates the job dispatcher.
func NewJobRunner(
	service *emissions.Service,
	uploader *upload.Uploader,
	migrator *migration.Migrator,
	exporter *export.Exporter,
	migrationsFS MigrationsFS,
	cfg *config.Config,
) *JobRunner {
	return &JobRunner{
		service:      service,
		uploader:     uploader,
		migrator:     migrator,
		exporter:     exporter,
		migrationsFS: migrationsFS,
		schema:       cfg.Emissions.Warehouse.Schema,
	}
}

// Run executes the selected job.
func (r *JobRunner) Run(ctx context.Context, params JobParams) error {
	switch params.Job {
	case "", "aggregate":
		return r.runAggregate(ctx, params)
	case "upload":
		return r.runUpload(ctx, params)
	case "migrate":
		return r.migrator.Up(ctx, r.migrationsFS.FS, r.migrationsFS.Path)
	case "export":
		return r.runExport(ctx, params)
	default:
		return fmt.Errorf("unknown job: %q", params.Job)
	}
}

// runAggregate loads both series, aligns them, aggregates at the requested
// frequency and writes the result as CSV on stdout for the presentation
// layer.
func (r *JobRunner) runAggregate(ctx context.Context, params JobParams) error {
	f, err := parseFrequency(params.Frequency)
	if err != nil {
		return err
	}

	aligned, err := r.service.LoadAligned(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Aligned table holds %d rows.", aligned.NumRows())

	aggregated, err := r.service.AggregateTable(aligned, f)
	if err != nil {
		return err
	}
	logger.Infof("Aggregated into %d %s buckets.", aggregated.NumRows(), f)
	return aggregated.WriteCSV(os.Stdout)
}

// runUpload reads a local CSV file and bulk-loads it into the target table.
func (r *JobRunner) runUpload(ctx context.Context, params JobParams) error {
	if params.File == "" || params.TargetTable == "" {
		return fmt.Errorf("upload job requires -file and -table")
	}

	file, err := os.Open(params.File)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", params.File, err)
	}
	defer file.Close()

	t, err := table.ReadCSV(file)
	if err != nil {
		return fmt.Errorf("failed to parse '%s': %w", params.File, err)
	}

	return r.uploader.Upload(ctx, t, r.schema, params.TargetTable, upload.Options{
		Incremental:   params.Incremental,
		StagingSuffix: params.StagingSuffix,
	})
}

// runExport aggregates at the requested frequency and archives the result as
// Parquet in the configured storage backend.
func (r *JobRunner) runExport(ctx context.Context, params JobParams) error {
	f, err := parseFrequency(params.Frequency)
	if err != nil {
		return err
	}

	aggregated, err := r.service.AggregatedSeries(ctx, f)
	if err != nil {
		return err
	}
	return r.exporter.ExportAggregated(ctx, aggregated, f)
}

// parseFrequency maps the job parameter to a Frequency, defaulting to Month
// as the original dashboard did.
func parseFrequency(s string) (aggregate.Frequency, error) {
	if s == "" {
		return aggregate.Month, nil
	}
	return aggregate.ParseFrequency(s)
}
