// Package metrics records operational counters for the emissions data core
// using Prometheus collectors on a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds the Prometheus collectors for the data core.
type Recorder struct {
	registry *prometheus.Registry

	fetchDurationSeconds *prometheus.HistogramVec
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	uploadsTotal         *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry, pre-registered with
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		fetchDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emissions_fetch_duration_seconds",
			Help:    "Duration of warehouse fetch operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emissions_query_cache_hits_total",
			Help: "Total query cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emissions_query_cache_misses_total",
			Help: "Total query cache misses.",
		}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emissions_uploads_total",
			Help: "Total bulk uploads by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		r.fetchDurationSeconds,
		r.cacheHits,
		r.cacheMisses,
		r.uploadsTotal,
	)
	return r
}

// Registry exposes the underlying registry for an HTTP scrape handler layered
// outside the core.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetchDuration records the duration of a fetch against a named source.
func (r *Recorder) ObserveFetchDuration(source string, d time.Duration) {
	r.fetchDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// IncCacheHit increments the query cache hit counter.
func (r *Recorder) IncCacheHit() {
	r.cacheHits.Inc()
}

// IncCacheMiss increments the query cache miss counter.
func (r *Recorder) IncCacheMiss() {
	r.cacheMisses.Inc()
}

// IncUpload increments the upload counter for the given result ("success" or
// "failure").
func (r *Recorder) IncUpload(result string) {
	r.uploadsTotal.WithLabelValues(result).Inc()
}
