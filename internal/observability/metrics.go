// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider API metrics
	ProviderRequests  *prometheus.CounterVec
	ProviderErrors    *prometheus.CounterVec
	ProviderLatency   *prometheus.HistogramVec
	ProviderRateWaits *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheSets   *prometheus.CounterVec

	// Collector metrics
	CollectorRuns      *prometheus.CounterVec
	CollectorDuration  prometheus.Histogram
	TokensTracked      prometheus.Gauge
	SnapshotsStored    prometheus.Counter
	TradesStored       prometheus.Counter
	TrainingRowsStored prometheus.Counter

	// Stream metrics
	StreamMessages   prometheus.Counter
	StreamReconnects prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCollection prometheus.Gauge
	UptimeSeconds            prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "memecoin_lab"
	}

	return &Metrics{
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of upstream API requests by provider",
		}, []string{"provider", "operation"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Total number of upstream API errors by provider",
		}, []string{"provider", "operation"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_latency_seconds",
			Help:      "Upstream API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		ProviderRateWaits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "rate_limit_waits_total",
			Help:      "Total number of requests delayed by the rate limiter",
		}, []string{"provider"}),

		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		}, []string{"backend"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		}, []string{"backend"}),
		CacheSets: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "sets_total",
			Help:      "Total number of cache writes",
		}, []string{"backend"}),

		CollectorRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "runs_total",
			Help:      "Total number of collector passes by status",
		}, []string{"status"}),
		CollectorDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "pass_duration_seconds",
			Help:      "Collector pass duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		TokensTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "tokens_tracked",
			Help:      "Number of tokens currently tracked",
		}),
		SnapshotsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "snapshots_stored_total",
			Help:      "Total number of token snapshots stored",
		}),
		TradesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "trades_stored_total",
			Help:      "Total number of trades stored",
		}),
		TrainingRowsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "rows_stored_total",
			Help:      "Total number of training rows stored",
		}),

		StreamMessages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_total",
			Help:      "Total number of streaming trade messages received",
		}),
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of stream reconnections",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulCollection: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_collection_timestamp",
			Help:      "Unix timestamp of last successful collector pass",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProviderRequest records one upstream API call with its outcome.
func RecordProviderRequest(provider, operation string, seconds float64, err error) {
	DefaultMetrics.ProviderRequests.WithLabelValues(provider, operation).Inc()
	DefaultMetrics.ProviderLatency.WithLabelValues(provider).Observe(seconds)
	if err != nil {
		DefaultMetrics.ProviderErrors.WithLabelValues(provider, operation).Inc()
	}
}

// RecordDBQuery records one database query with its duration and outcome.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordCacheHit increments the cache hit counter for a backend.
func RecordCacheHit(backend string) {
	DefaultMetrics.CacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss increments the cache miss counter for a backend.
func RecordCacheMiss(backend string) {
	DefaultMetrics.CacheMisses.WithLabelValues(backend).Inc()
}

// RecordCacheSet increments the cache write counter for a backend.
func RecordCacheSet(backend string) {
	DefaultMetrics.CacheSets.WithLabelValues(backend).Inc()
}
