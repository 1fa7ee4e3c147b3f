// Package metrics exposes Prometheus instruments for retrieval, generation,
// attempt recording and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edurag"

// Metrics holds every instrument on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	SearchDuration    prometheus.Histogram
	SearchTotal       *prometheus.CounterVec
	GenerationTotal   *prometheus.CounterVec
	GenerationLatency *prometheus.HistogramVec
	AttemptsRecorded  *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
}

// New creates and registers the instruments, plus the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Retrieval latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SearchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Searches by outcome",
		}, []string{"outcome"}),
		GenerationTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_total",
			Help:      "Generation requests by purpose and status",
		}, []string{"purpose", "status"}),
		GenerationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generation latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"purpose"}),
		AttemptsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_recorded_total",
			Help:      "Quiz attempts recorded by result",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveSearch implements index.Observer.
func (m *Metrics) ObserveSearch(d time.Duration, results int) {
	m.SearchDuration.Observe(d.Seconds())
	outcome := "hit"
	if results == 0 {
		outcome = "miss"
	}
	m.SearchTotal.WithLabelValues(outcome).Inc()
}

// ObserveGeneration implements llm.Observer.
func (m *Metrics) ObserveGeneration(purpose string, success bool, latency time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.GenerationTotal.WithLabelValues(purpose, status).Inc()
	m.GenerationLatency.WithLabelValues(purpose).Observe(latency.Seconds())
}

// ObserveAttempt counts a recorded attempt as passed or failed.
func (m *Metrics) ObserveAttempt(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	m.AttemptsRecorded.WithLabelValues(result).Inc()
}

// ObserveHTTP counts one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
