package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bootstrap"

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRejected        prometheus.Counter

	// Startup
	ConfigResolutions *prometheus.CounterVec
	AppReady          prometheus.Gauge

	// Database
	DBConnectAttempts *prometheus.CounterVec
	DBConnected       prometheus.Gauge
	DBPoolConnections *prometheus.GaugeVec

	registry prometheus.Gatherer
}

// NewMetrics creates and registers all application metrics with the default registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewTestMetrics creates metrics backed by a throw-away registry.
// Safe to call from multiple tests without duplicate-registration panics.
func NewTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return newMetrics(reg, reg)
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func newMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "path"}),

		HTTPRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_rejected_total",
			Help:      "HTTP requests rejected by the in-flight limit.",
		}),

		ConfigResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_resolutions_total",
			Help:      "Database configuration resolutions by source and result.",
		}, []string{"source", "result"}),

		AppReady: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_ready",
			Help:      "Whether startup completed and the service accepts traffic (1) or not (0).",
		}),

		DBConnectAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_connect_attempts_total",
			Help:      "Database connectivity probes by result.",
		}, []string{"result"}),

		DBConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connected",
			Help:      "Whether the database is considered reachable (1) or not (0).",
		}),

		DBPoolConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_connections",
			Help:      "Database connection pool statistics.",
		}, []string{"state"}),

		registry: gatherer,
	}
}
