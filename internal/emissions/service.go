package emissions

import (
	"context"
	"time"

	"github.com/Gkaczkowski/emissions-app/internal/aggregate"
	"github.com/Gkaczkowski/emissions-app/internal/align"
	"github.com/Gkaczkowski/emissions-app/internal/table"
)

// Service is the operation surface consumed by the presentation boundary:
// fetch both series, align them on the shared time axis, and aggregate into
// calendar buckets. Each call runs to completion before the next; derived
// tables are fresh values, never shared.
type Service struct {
	fetcher *Fetcher
	schema  string
	loc     *time.Location
}

// NewService creates a Service reading from the given warehouse schema and
// converting the aligned time axis to loc.
func NewService(fetcher *Fetcher, schema string, loc *time.Location) *Service {
	return &Service{fetcher: fetcher, schema: schema, loc: loc}
}

// FetchAverageIntensity fetches the zone-keyed average carbon intensity
// series.
func (s *Service) FetchAverageIntensity(ctx context.Context) (*table.Table, error) {
	return s.fetcher.Fetch(ctx, AverageIntensityTable, AverageIntensityQuery(s.schema))
}

// FetchMarginalRate fetches the balancing-authority-keyed marginal operating
// emissions rate series.
func (s *Service) FetchMarginalRate(ctx context.Context) (*table.Table, error) {
	return s.fetcher.Fetch(ctx, MarginalRateTable, MarginalRateQuery(s.schema))
}

// LoadAligned fetches both series and aligns them: concatenated row-wise,
// sorted ascending on the shared datetime axis, converted UTC to the
// configured zone, backward-filled.
func (s *Service) LoadAligned(ctx context.Context) (*table.Table, error) {
	avg, err := s.FetchAverageIntensity(ctx)
	if err != nil {
		return nil, err
	}
	moer, err := s.FetchMarginalRate(ctx)
	if err != nil {
		return nil, err
	}
	return align.Align(avg, moer, AverageIntensityTimestampColumn, MarginalRateTimestampColumn, s.loc)
}

// aggregateOptions are the column bindings for the emissions series.
func aggregateOptions() aggregate.Options {
	return aggregate.Options{
		TimeColumn:     align.DatetimeColumn,
		MarginalColumn: MarginalRateColumn,
		AverageColumn:  AverageIntensityRateColumn,
		DeltaColumn:    DeltaColumn,
	}
}

// AggregatedSeries returns one row per non-empty calendar bucket: the mean of
// each numeric column plus the derived delta column.
func (s *Service) AggregatedSeries(ctx context.Context, f aggregate.Frequency) (*table.Table, error) {
	aligned, err := s.LoadAligned(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.Aggregate(aligned, f, aggregateOptions())
}

// OverlaySeries returns the per-bucket raw marginal-rate values plus bucket
// means, for the spread visualization.
func (s *Service) OverlaySeries(ctx context.Context, f aggregate.Frequency) (*aggregate.Overlay, error) {
	aligned, err := s.LoadAligned(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.BuildOverlay(aligned, f, align.DatetimeColumn, MarginalRateColumn)
}

// AggregateTable aggregates an already-aligned table. Exposed so a caller
// that holds the aligned table (e.g. to render several bucket sizes) does not
// refetch per frequency.
func (s *Service) AggregateTable(aligned *table.Table, f aggregate.Frequency) (*table.Table, error) {
	return aggregate.Aggregate(aligned, f, aggregateOptions())
}

// OverlayTable builds the overlay view over an already-aligned table.
func (s *Service) OverlayTable(aligned *table.Table, f aggregate.Frequency) (*aggregate.Overlay, error) {
	return aggregate.BuildOverlay(aligned, f, align.DatetimeColumn, MarginalRateColumn)
}
