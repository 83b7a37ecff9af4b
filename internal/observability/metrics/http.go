package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	translationRequestsTotal *prometheus.CounterVec
	translationDuration      *prometheus.HistogramVec
	insightsFallbackTotal    *prometheus.CounterVec
	breakerState             *prometheus.GaugeVec
	documentsCreatedTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docvault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docvault",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	translationRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvault",
			Name:      "translation_requests_total",
			Help:      "Total translation requests by outcome.",
		},
		[]string{"service", "outcome"},
	)
	translationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docvault",
			Name:      "translation_duration_seconds",
			Help:      "Translation duration in seconds, upstream calls included.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"service"},
	)
	insightsFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvault",
			Name:      "translation_insights_fallback_total",
			Help:      "Translations that returned the original insights after an upstream failure.",
		},
		[]string{"service"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "docvault",
			Subsystem: "llm",
			Name:      "breaker_open",
			Help:      "1 when the upstream circuit breaker for the operation is not closed.",
		},
		[]string{"service", "operation"},
	)
	documentsCreatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvault",
			Subsystem: "catalog",
			Name:      "documents_created_total",
			Help:      "Total documents created by category.",
		},
		[]string{"service", "category"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		translationRequestsTotal,
		translationDuration,
		insightsFallbackTotal,
		breakerState,
		documentsCreatedTotal,
	)

	return &HTTPServerMetrics{
		registry:                 registry,
		service:                  service,
		requestTotal:             requestTotal,
		requestDuration:          requestDuration,
		requestInFlight:          requestInFlight,
		translationRequestsTotal: translationRequestsTotal,
		translationDuration:      translationDuration,
		insightsFallbackTotal:    insightsFallbackTotal,
		breakerState:             breakerState,
		documentsCreatedTotal:    documentsCreatedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case path == "/v1/documents/stats", path == "/v1/documents/export.xlsx":
		return path
	case strings.HasPrefix(path, "/v1/documents/") && strings.HasSuffix(path, "/file"):
		return "/v1/documents/{document_id}/file"
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordTranslation counts one finished translation. Outcome is "ok" or the error kind label.
func (m *HTTPServerMetrics) RecordTranslation(outcome string, duration time.Duration, insightsFallback bool) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.translationRequestsTotal.WithLabelValues(m.service, outcome).Inc()
	m.translationDuration.WithLabelValues(m.service).Observe(duration.Seconds())
	if insightsFallback {
		m.insightsFallbackTotal.WithLabelValues(m.service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordBreakerState(operation, state string) {
	value := 1.0
	if state == "closed" {
		value = 0
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}

func (m *HTTPServerMetrics) RecordDocumentCreated(category string) {
	if category == "" {
		category = "unknown"
	}
	m.documentsCreatedTotal.WithLabelValues(m.service, category).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
