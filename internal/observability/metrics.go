package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate per route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency. Watch for p95/p99 increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Outbound provider call rate. Watch the error vs success ratio.
	ProviderCallsTotal *prometheus.CounterVec

	// Retry attempts against the provider. High values mean an unstable upstream.
	ProviderRetriesTotal prometheus.Counter

	// Forecast snapshots written to the store.
	SnapshotsPersistedTotal prometheus.Counter

	// Location rows created on first sight of a coordinate pair.
	LocationsCreatedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_calls_total",
			Help: "Total number of outbound weather provider calls",
		},
		[]string{"outcome"},
	)
	ProviderRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "provider_retries_total",
			Help: "Total number of provider call retries",
		},
	)
	SnapshotsPersistedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshots_persisted_total",
			Help: "Total number of forecast snapshots written",
		},
	)
	LocationsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locations_created_total",
			Help: "Total number of location rows created",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ProviderCallsTotal,
		ProviderRetriesTotal,
		SnapshotsPersistedTotal,
		LocationsCreatedTotal,
	)
}

// MetricsHandler returns the /metrics endpoint handler backed by the
// service registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
