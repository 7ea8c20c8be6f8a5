// Package metrics holds the prometheus counters for session transitions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lms_web"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	authAttempts    *prometheus.CounterVec
	teardowns       *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
	resolveSource   *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	authenticated   prometheus.Gauge
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login, register and logout attempts by outcome",
		}, []string{"operation", "outcome"}),

		teardowns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_teardowns_total",
			Help:      "Session teardowns by reason",
		}, []string{"reason"}),

		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions",
		}, []string{"decision"}),

		resolveSource: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Startup resolutions by the source that produced the session",
		}, []string{"source"}),

		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Duration of proxied backend requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),

		authenticated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_authenticated",
			Help:      "1 while a session is authenticated",
		}),
	}
}

func (m *Metrics) AuthAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Teardown(reason string) {
	if m == nil {
		return
	}
	m.teardowns.WithLabelValues(reason).Inc()
}

func (m *Metrics) GuardDecision(allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) Resolved(source string) {
	if m == nil {
		return
	}
	m.resolveSource.WithLabelValues(source).Inc()
}

func (m *Metrics) BackendRequest(method, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(method, status).Observe(took.Seconds())
}

func (m *Metrics) SetAuthenticated(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.authenticated.Set(1)
		return
	}
	m.authenticated.Set(0)
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
