package main

import (
	"context"
	"embed"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gkaczkowski/emissions-app/internal/app"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"

	// Warehouse drivers. The configured driver must be linked in here.
	_ "github.com/Gkaczkowski/emissions-app/internal/warehouse/gormadapter/mysql"
	_ "github.com/Gkaczkowski/emissions-app/internal/warehouse/gormadapter/postgres"
	_ "github.com/Gkaczkowski/emissions-app/internal/warehouse/gormadapter/sqlite"
)

// embeddedConfig embeds the application's YAML configuration file.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// migrationsFS embeds the SQL migration scripts that create the emissions
// source tables.
//
//go:embed all:resources/migrations
var migrationsFS embed.FS

// main parses the job selection, installs signal handling for graceful
// shutdown and runs the application.
func main() {
	job := flag.String("job", "aggregate", "job to run: aggregate, upload, migrate, export")
	freq := flag.String("freq", "month", "bucket frequency: week, month, year")
	file := flag.String("file", "", "local CSV file to upload (upload job)")
	targetTable := flag.String("table", "", "target table name (upload job)")
	incremental := flag.Bool("incremental", false, "append instead of replacing stage and table (upload job)")
	suffix := flag.String("suffix", "", "staged file name suffix (upload job; default: timestamp to the minute)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the job...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	err := app.RunApplication(ctx, envFilePath, embeddedConfig,
		app.MigrationsFS{FS: migrationsFS, Path: "resources/migrations"},
		app.JobParams{
			Job:           *job,
			Frequency:     *freq,
			File:          *file,
			TargetTable:   *targetTable,
			Incremental:   *incremental,
			StagingSuffix: *suffix,
		})
	if err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}
