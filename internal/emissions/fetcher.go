package emissions

import (
	"context"
	"strings"
	"time"

	"github.com/Gkaczkowski/emissions-app/internal/cache"
	"github.com/Gkaczkowski/emissions-app/internal/metrics"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
	"github.com/Gkaczkowski/emissions-app/internal/table"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse"
)

// Fetcher issues parameterless SQL strings against the warehouse and returns
// the result as a Table with lower-cased column names. Each fetch owns its
// connection for the duration of the call only.
//
// Query text is passed through verbatim — no parameterization or escaping is
// performed. Callers must only pass compiled-in query text (see series.go);
// interpolating user input here would be an injection hole.
type Fetcher struct {
	connector warehouse.Connector
	cache     *cache.QueryCache
	recorder  *metrics.Recorder
}

// NewFetcher creates a Fetcher. cache and recorder may each be nil to disable
// caching and metrics respectively.
func NewFetcher(connector warehouse.Connector, c *cache.QueryCache, recorder *metrics.Recorder) *Fetcher {
	return &Fetcher{connector: connector, cache: c, recorder: recorder}
}

// Fetch executes query and returns its rows in warehouse order, columns
// lower-cased. Results are served from the query cache when fresh. source is
// a short label for metrics ("average_carbon_intensity", ...).
func (f *Fetcher) Fetch(ctx context.Context, source, query string) (*table.Table, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(query); ok {
			logger.Debugf("Query cache hit for source '%s'.", source)
			return cached, nil
		}
	}

	start := time.Now()
	var result *table.Table
	err := warehouse.WithConnection(ctx, f.connector, func(conn warehouse.Connection) error {
		t, err := conn.Query(ctx, query)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if f.recorder != nil {
		f.recorder.ObserveFetchDuration(source, time.Since(start))
	}

	lowercaseColumns(result)
	logger.Infof("Fetched %d rows for source '%s'.", result.NumRows(), source)

	if f.cache != nil {
		f.cache.Put(query, result)
	}
	return result, nil
}

// lowercaseColumns renames every column to its lower-cased form, matching the
// warehouse client contract that result columns are reported lower-cased.
func lowercaseColumns(t *table.Table) {
	for _, c := range t.Columns() {
		lower := strings.ToLower(c)
		if lower != c {
			// Rename only fails on collisions, which lower-casing warehouse
			// metadata does not produce.
			_ = t.Rename(c, lower)
		}
	}
}
