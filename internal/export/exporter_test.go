package export_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gkaczkowski/emissions-app/internal/aggregate"
	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/export"
	"github.com/Gkaczkowski/emissions-app/internal/storage"
	"github.com/Gkaczkowski/emissions-app/internal/table"
)

func aggregatedTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(
		[]string{"datetime", "carbon_intensity_tons_per_mwh", "moer_tons_per_mwh", "delta_marginal_vs_average_tons_per_mwh"},
		[][]interface{}{
			{time.Date(2023, 5, 14, 0, 0, 0, 0, time.UTC), 0.3, 0.6, 0.3},
			{time.Date(2023, 5, 21, 0, 0, 0, 0, time.UTC), nil, 0.7, nil},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestExportAggregated_WritesFrequencyPartitionedObject(t *testing.T) {
	baseDir := t.TempDir()
	e := export.NewExporter(config.StorageConfig{Type: "local", BaseDir: baseDir}, "aggregated")

	err := e.ExportAggregated(context.Background(), aggregatedTable(t), aggregate.Week)
	require.NoError(t, err)

	conn, err := storage.Open(context.Background(), config.StorageConfig{Type: "local", BaseDir: baseDir})
	require.NoError(t, err)
	defer conn.Close()

	var names []string
	require.NoError(t, conn.List(context.Background(), "aggregated", func(objectName string) error {
		names = append(names, objectName)
		return nil
	}))
	require.Len(t, names, 1)
	assert.Regexp(t, `^aggregated/freq=week/aggregated_\d{8}_\d{6}\.parquet$`, names[0])
}

func TestExportAggregated_EmptyTableIsNoop(t *testing.T) {
	baseDir := t.TempDir()
	e := export.NewExporter(config.StorageConfig{Type: "local", BaseDir: baseDir}, "aggregated")

	empty, err := table.New([]string{"datetime"})
	require.NoError(t, err)

	require.NoError(t, e.ExportAggregated(context.Background(), empty, aggregate.Month))

	conn, err := storage.Open(context.Background(), config.StorageConfig{Type: "local", BaseDir: baseDir})
	require.NoError(t, err)
	defer conn.Close()

	count := 0
	require.NoError(t, conn.List(context.Background(), "aggregated", func(string) error {
		count++
		return nil
	}))
	assert.Equal(t, 0, count)
}

func TestExportAggregated_MissingTimeColumn(t *testing.T) {
	e := export.NewExporter(config.StorageConfig{Type: "local", BaseDir: t.TempDir()}, "aggregated")

	tbl, err := table.FromRows([]string{"moer_tons_per_mwh"}, [][]interface{}{{0.5}})
	require.NoError(t, err)

	err = e.ExportAggregated(context.Background(), tbl, aggregate.Week)
	assert.Error(t, err)
}
