// Package metrics defines the Prometheus collectors of the service and
// helpers to record them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lvillar/pdfgen/document"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfgen_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfgen_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfgen_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Conversions
	DocumentsRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfgen_documents_rendered_total",
			Help: "Total number of JSON documents rendered to PDF",
		},
	)

	DocumentPages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfgen_document_pages",
			Help:    "Pages per rendered document",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 250},
		},
	)

	DocumentRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfgen_document_render_duration_seconds",
			Help:    "Time spent rendering a document",
			Buckets: prometheus.DefBuckets,
		},
	)

	AssetFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfgen_asset_failures_total",
			Help: "Remote assets that could not be embedded",
		},
		[]string{"kind"},
	)

	// Forms
	FormOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfgen_form_operations_total",
			Help: "Form operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Record store
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pdfgen_circuit_breaker_state",
			Help: "Record store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfgen_circuit_breaker_transitions_total",
			Help: "Record store circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records a finished API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordFormOperation counts a form operation.
func RecordFormOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	FormOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordBreakerTransition is a nocobase.WithStateHook callback.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

func stateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	}
	return -1
}

// DocumentHooks records conversions and degraded assets.
func DocumentHooks() document.Hooks {
	return document.Hooks{
		AssetFailed: func(kind string, _ error) {
			AssetFailures.WithLabelValues(kind).Inc()
		},
		Rendered: func(r *document.Report, elapsed time.Duration) {
			DocumentsRendered.Inc()
			DocumentPages.Observe(float64(r.Pages))
			DocumentRenderDuration.Observe(elapsed.Seconds())
		},
	}
}

// Middleware records every request under its chi route pattern, so that
// path parameters do not explode the label space.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		APIActiveRequests.Inc()
		defer APIActiveRequests.Dec()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordAPIRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
