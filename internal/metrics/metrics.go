package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ocrDuration     *prometheus.HistogramVec
	generations     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathfinder_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathfinder_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"method", "route"},
		),
		ocrDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathfinder_ocr_duration_seconds",
				Help:    "Duration of Document AI OCR calls",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 180},
			},
			[]string{"outcome"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathfinder_generations_total",
				Help: "Learning path generations by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.ocrDuration,
		m.generations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveHTTP(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.requests.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveOCR(err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.ocrDuration.WithLabelValues(outcome(err)).Observe(dur.Seconds())
}

func (m *Metrics) IncGeneration(provider string, err error) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(provider, outcome(err)).Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
