// Package app assembles the emissions data core into a runnable application
// using uber-fx: configuration, warehouse connector, pipeline services, bulk
// loader, migrator and archive exporter.
package app

import (
	"context"
	"embed"
	"time"

	"go.uber.org/fx"

	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
)

// JobParams selects the job the process runs and its arguments.
type JobParams struct {
	// Job is one of "aggregate", "upload", "migrate", "export".
	Job string
	// Frequency is the bucket size name for aggregate/export jobs.
	Frequency string
	// File is the local CSV path for upload jobs.
	File string
	// TargetTable is the destination table for upload jobs.
	TargetTable string
	// Incremental selects append semantics for upload jobs.
	Incremental bool
	// StagingSuffix optionally names the staged file for upload jobs.
	StagingSuffix string
}

// MigrationsFS wraps the embedded migrations file system so Fx can carry it
// by type.
type MigrationsFS struct {
	FS   embed.FS
	Path string
}

// RunApplication builds and runs the Fx application. It returns when the
// selected job has finished or the context is cancelled.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, migrationsFS MigrationsFS, params JobParams) error {
	// Load once up front so the log level is right before the container
	// starts; the container re-loads through config.Module.
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetLogLevel(cfg.Emissions.System.Logging.Level)

	result := &JobResult{}
	app := fx.New(
		fx.Supply(
			embeddedConfig,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			params,
			migrationsFS,
			result,
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),
		logger.Module,
		config.Module,
		Module,
		fx.Invoke(fx.Annotate(startJob, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // runner *JobRunner
			"",              // params JobParams
			"",              // result *JobResult
			`name:"appCtx"`, // appCtx context.Context
		))),
		fx.StartTimeout(30*time.Second),
	)

	app.Run()
	if app.Err() != nil {
		return app.Err()
	}
	return result.Err
}

// JobResult carries the outcome of the job out of the Fx container.
type JobResult struct {
	Err error
}

// startJob launches the selected job on application start and shuts the
// container down when it completes.
func startJob(lc fx.Lifecycle, shutdowner fx.Shutdowner, runner *JobRunner, params JobParams, result *JobResult, appCtx context.Context) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := runner.Run(appCtx, params); err != nil {
					logger.Errorf("Job '%s' failed: %v", params.Job, err)
					result.Err = err
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}
