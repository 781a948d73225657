package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	QuotesTotal      *prometheus.CounterVec
	QuoteDuration    *prometheus.HistogramVec
	RateSourceErrors *prometheus.CounterVec
	FallbackRates    prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		QuotesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratewise_quotes_total",
				Help: "Total quote requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		QuoteDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratewise_quote_duration_seconds",
				Help:    "Quote calculation duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RateSourceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratewise_rate_source_errors_total",
				Help: "Total rate source errors by source and error type",
			},
			[]string{"source", "error_type"},
		),
		FallbackRates: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ratewise_fallback_rates_total",
				Help: "Times static fallback rates were served instead of live rates",
			},
		),
		CacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ratewise_rate_cache_hits_total",
				Help: "Rate cache hits",
			},
		),
		CacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ratewise_rate_cache_misses_total",
				Help: "Rate cache misses",
			},
		),
	}
}

// RecordQuote records a quote request metric.
func (m *Metrics) RecordQuote(operation, status string, duration float64) {
	m.QuotesTotal.WithLabelValues(operation, status).Inc()
	m.QuoteDuration.WithLabelValues(operation).Observe(duration)
}

// RecordSourceError records a rate source error metric.
func (m *Metrics) RecordSourceError(source, errorType string) {
	m.RateSourceErrors.WithLabelValues(source, errorType).Inc()
}
