package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process metric registry and the collectors handed out to
// the HTTP layers.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	LoginOutcomes *prometheus.CounterVec
	GateDecisions *prometheus.CounterVec
}

// NewMetrics builds a registry with the standard process collectors plus the
// app's own instruments.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbgate",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path, and status class.",
		}, []string{"method", "path", "class"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "arbgate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		LoginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbgate",
			Name:      "login_outcomes_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbgate",
			Name:      "gate_decisions_total",
			Help:      "Access gate decisions by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.LoginOutcomes, m.GateDecisions)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
