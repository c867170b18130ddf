// Package metrics holds the prometheus collectors of the server and the
// /metrics handler that exposes them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophjokes"

// Result label values.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultDenied  = "denied"
	ResultMissing = "not_found"
	ResultError   = "error"
)

// Metrics owns a private registry so that several instances (tests, the
// server) never collide on global registration. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	authAttempts  *prometheus.CounterVec
	jokeMutations *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Login and registration attempts by kind and result",
			},
			[]string{"kind", "result"},
		),
		jokeMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "joke_mutations_total",
				Help:      "Joke create and delete attempts by operation and result",
			},
			[]string{"op", "result"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "route", "code"},
		),
	}

	m.registry.MustRegister(
		m.authAttempts,
		m.jokeMutations,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAuth counts a login or register attempt.
func (m *Metrics) ObserveAuth(kind, result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(kind, result).Inc()
}

// ObserveMutation counts a create or delete attempt.
func (m *Metrics) ObserveMutation(op, result string) {
	if m == nil {
		return
	}
	m.jokeMutations.WithLabelValues(op, result).Inc()
}

// ObserveHTTP records one served request. route is the mux pattern, not the
// raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}
