package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the spacectl client
type Metrics struct {
	// API transport metrics
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	// Token refresh metrics
	TokenRefreshes *prometheus.CounterVec

	// Session lifecycle metrics
	SessionValidations *prometheus.CounterVec
	SessionRestores    *prometheus.CounterVec

	// Tenant context metrics
	ContextSwitches *prometheus.CounterVec

	// AIMS connectivity metrics
	AIMSConnects *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance backed by a private registry.
// A private registry keeps the client usable as a library without
// polluting the default global registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spacectl",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),

		RequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacectl",
			Subsystem: "api",
			Name:      "request_errors_total",
			Help:      "API request failures by error code",
		}, []string{"code"}),

		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacectl",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts",
		}, []string{"result"}),

		SessionValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacectl",
			Subsystem: "session",
			Name:      "validations_total",
			Help:      "Background session validations",
		}, []string{"result"}),

		SessionRestores: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacectl",
			Subsystem: "session",
			Name:      "restores_total",
			Help:      "Silent session restore attempts",
		}, []string{"result"}),

		ContextSwitches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacectl",
			Subsystem: "session",
			Name:      "context_switches_total",
			Help:      "Active company/store switches",
		}, []string{"kind", "result"}),

		AIMSConnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacectl",
			Subsystem: "aims",
			Name:      "connects_total",
			Help:      "AIMS auto-connect attempts",
		}, []string{"result"}),

		registry: registry,
	}
}

// Registry returns the underlying Prometheus registry, for exposition or
// test inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Result label values shared across counters.
const (
	ResultOK    = "ok"
	ResultError = "error"
)
