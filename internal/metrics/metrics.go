// Package metrics exposes Prometheus metrics for the HTTP layer, document
// analysis and session finalization.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docfill"

// Analysis outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeInvalidInput   = "invalid_input"
	OutcomeTransportError = "transport_error"
	OutcomeResponseError  = "response_error"
)

// Finalize results.
const (
	FinalizeOK    = "ok"
	FinalizeError = "error"
)

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestInFlight  prometheus.Gauge
	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	finalizedTotal   *prometheus.CounterVec
}

// New creates the collectors and registers them, plus Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "in_flight_requests",
				Help:      "Number of in-flight HTTP requests.",
			},
		),
		analysisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_total",
				Help:      "Document analyses by document type and outcome.",
			},
			[]string{"document_type", "outcome"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_model_duration_seconds",
				Help:      "Time spent waiting on the vision model.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"document_type"},
		),
		finalizedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_finalized_total",
				Help:      "Form submissions by result.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.analysisTotal,
		m.analysisDuration,
		m.finalizedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count, latency and in-flight requests. Unmatched
// routes are reported under a single path label.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.requestTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveAnalysis counts one analysis attempt. docType should already be
// bounded to known types by the caller.
func (m *Metrics) ObserveAnalysis(docType, outcome string) {
	if m == nil {
		return
	}
	m.analysisTotal.WithLabelValues(docType, outcome).Inc()
}

// ObserveModelLatency records how long one model call took.
func (m *Metrics) ObserveModelLatency(docType string, d time.Duration) {
	if m == nil {
		return
	}
	m.analysisDuration.WithLabelValues(docType).Observe(d.Seconds())
}

// ObserveFinalize counts one form submission.
func (m *Metrics) ObserveFinalize(result string) {
	if m == nil {
		return
	}
	m.finalizedTotal.WithLabelValues(result).Inc()
}

// AnalysisCounter exposes the analysis counter for assertions.
func (m *Metrics) AnalysisCounter() *prometheus.CounterVec {
	return m.analysisTotal
}
