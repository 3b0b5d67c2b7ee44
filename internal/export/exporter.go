// Package export archives aggregated emissions tables as Parquet files in
// the configured storage backend, partitioned by bucket frequency, for
// downstream consumers that read columnar archives rather than the
// warehouse.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/Gkaczkowski/emissions-app/internal/aggregate"
	"github.com/Gkaczkowski/emissions-app/internal/align"
	"github.com/Gkaczkowski/emissions-app/internal/config"
	"github.com/Gkaczkowski/emissions-app/internal/emissions"
	"github.com/Gkaczkowski/emissions-app/internal/storage"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
	"github.com/Gkaczkowski/emissions-app/internal/table"
)

// Exporter writes aggregated tables to archive storage. Storage connections
// are scoped per export operation.
type Exporter struct {
	storageCfg    config.StorageConfig
	outputBaseDir string
	now           func() time.Time
}

// NewExporter creates an Exporter for the given storage backend settings.
func NewExporter(storageCfg config.StorageConfig, outputBaseDir string) *Exporter {
	return &Exporter{
		storageCfg:    storageCfg,
		outputBaseDir: outputBaseDir,
		now:           time.Now,
	}
}

// ExportAggregated serializes an aggregated table to Parquet and uploads it
// under a frequency-partitioned object path.
func (e *Exporter) ExportAggregated(ctx context.Context, t *table.Table, f aggregate.Frequency) error {
	records, err := toRecords(t)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logger.Warnf("No aggregated rows to export.")
		return nil
	}

	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(AggregatedRecord), 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("failed to write parquet record: %w", err)
		}
	}
	if err := writeStop(pw); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	objectPath := fmt.Sprintf("%s/freq=%s/aggregated_%s.parquet",
		e.outputBaseDir,
		strings.ToLower(f.String()),
		e.now().Format("20060102_150405"))

	conn, err := storage.Open(ctx, e.storageCfg)
	if err != nil {
		return fmt.Errorf("failed to open storage connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close storage connection: %v", err)
		}
	}()

	if err := conn.Upload(ctx, objectPath, buf, "application/x-parquet"); err != nil {
		return fmt.Errorf("failed to upload parquet archive to '%s': %w", objectPath, err)
	}
	logger.Infof("Exported %d aggregated rows to '%s' (%d bytes).", len(records), objectPath, buf.Len())
	return nil
}

// writeStop finalizes the parquet writer. WriteStop can panic inside the
// library; the panic is converted into an error.
func writeStop(pw *writer.ParquetWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("panic in parquet WriteStop: %v", r)
			}
		}
	}()
	return pw.WriteStop()
}

// toRecords converts an aggregated table into the Parquet row schema.
func toRecords(t *table.Table) ([]AggregatedRecord, error) {
	if !t.HasColumn(align.DatetimeColumn) {
		return nil, fmt.Errorf("export: missing time column %q", align.DatetimeColumn)
	}

	records := make([]AggregatedRecord, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		cell, _ := t.Cell(i, align.DatetimeColumn)
		ts, ok := table.Time(cell)
		if !ok {
			continue
		}
		records = append(records, AggregatedRecord{
			Bucket:                    ts.UnixMilli(),
			CarbonIntensityTonsPerMwh: floatCell(t, i, emissions.AverageIntensityRateColumn),
			MoerTonsPerMwh:            floatCell(t, i, emissions.MarginalRateColumn),
			DeltaTonsPerMwh:           floatCell(t, i, emissions.DeltaColumn),
		})
	}
	return records, nil
}

// floatCell extracts an optional numeric cell as a *float64.
func floatCell(t *table.Table, row int, col string) *float64 {
	cell, ok := t.Cell(row, col)
	if !ok {
		return nil
	}
	v, ok := table.Float(cell)
	if !ok {
		return nil
	}
	return &v
}
