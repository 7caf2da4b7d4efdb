package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "precip"

// Metrics holds the Prometheus collectors shared by the dashboard components.
type Metrics struct {
	// Upstream cache service calls.
	FetchRequests   *prometheus.CounterVec   // labels: category={precipitation,dataset}, outcome={success,network_error,service_error,malformed}
	FetchDuration   *prometheus.HistogramVec // labels: category
	FetchesInFlight *prometheus.GaugeVec     // labels: category

	// Controller.
	StaleCompletions *prometheus.CounterVec // labels: category
	StateVersions    prometheus.Counter
	Subscribers      prometheus.Gauge

	// Notifier.
	NotifyPublished prometheus.Counter
	NotifyFailures  prometheus.Counter

	// HTTP interface.
	HTTPRequests        *prometheus.CounterVec   // labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route
}

// New creates and registers all collectors with the default Prometheus registry.
func New() *Metrics {
	m := build()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewForTesting returns unregistered collectors so tests can build as many
// instances as they need.
func NewForTesting() *Metrics {
	return build()
}

func build() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Cache service requests by category and outcome.",
		}, []string{"category", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Cache service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"category"}),
		FetchesInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetches_in_flight",
			Help:      "Requests issued by the controller that have not completed yet.",
		}, []string{"category"}),
		StaleCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_completions_total",
			Help:      "Out of order completions discarded by the sequence guard.",
		}, []string{"category"}),
		StateVersions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_versions_total",
			Help:      "State snapshots published by the controller.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_subscribers",
			Help:      "Active state observers.",
		}),
		NotifyPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_published_total",
			Help:      "State snapshots published to valkey.",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "State snapshots that could not be published to valkey.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.FetchDuration,
		m.FetchesInFlight,
		m.StaleCompletions,
		m.StateVersions,
		m.Subscribers,
		m.NotifyPublished,
		m.NotifyFailures,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	}
}
