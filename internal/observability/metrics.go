package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scene pipeline and the grid retrieval client.
type Metrics struct {
	RequestsConsumed prometheus.Counter
	ScenesPublished  prometheus.Counter
	ComposeFailures  *prometheus.CounterVec // labels: reason={rejected,missing_data,upstream}
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	ComposeDuration         *prometheus.HistogramVec // labels: analysis

	// Grid retrieval metrics.
	GridRequests      *prometheus.CounterVec // labels: outcome={success,not_found,error}
	GridCache         *prometheus.CounterVec // labels: result={hit,miss}
	GridFetchDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_map",
			Name:      "requests_consumed_total",
			Help:      "Total plot requests read from the request topic.",
		}),
		ScenesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_map",
			Name:      "scenes_published_total",
			Help:      "Total scene documents written to the scene topic.",
		}),
		ComposeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_map",
			Name:      "compose_failures_total",
			Help:      "Scene composition failures by reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_map",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_map",
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_map",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-compose-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ComposeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_map",
			Name:      "compose_duration_seconds",
			Help:      "Scene composition duration by analysis.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"analysis"}),
		GridRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_map",
			Name:      "grid_requests_total",
			Help:      "MICAPS gateway requests by outcome.",
		}, []string{"outcome"}),
		GridCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_map",
			Name:      "grid_cache_total",
			Help:      "Grid cache lookups by result.",
		}, []string{"result"}),
		GridFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_map",
			Name:      "grid_fetch_duration_seconds",
			Help:      "MICAPS gateway request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.RequestsConsumed,
		m.ScenesPublished,
		m.ComposeFailures,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ComposeDuration,
		m.GridRequests,
		m.GridCache,
		m.GridFetchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RequestsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_map", Name: "requests_consumed_total"}),
		ScenesPublished:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_map", Name: "scenes_published_total"}),
		ComposeFailures:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_map", Name: "compose_failures_total"}, []string{"reason"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_map", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_map", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_map", Name: "batch_processing_duration_seconds"}),
		ComposeDuration:         prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_map", Name: "compose_duration_seconds"}, []string{"analysis"}),
		GridRequests:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_map", Name: "grid_requests_total"}, []string{"outcome"}),
		GridCache:               prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_map", Name: "grid_cache_total"}, []string{"result"}),
		GridFetchDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_map", Name: "grid_fetch_duration_seconds"}),
	}
}
