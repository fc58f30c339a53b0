package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)
)

// Domain metrics.
var (
	CheckoutSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sync_total",
			Help: "Draft order synchronizations by result (upserted, deleted, failed).",
		},
		[]string{"result"},
	)

	CheckoutSyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sync_failures_total",
			Help: "Draft order synchronizations that failed and were dropped.",
		},
	)

	CheckoutFinalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_finalizations_total",
			Help: "Checkout attempts by outcome.",
		},
		[]string{"outcome"},
	)

	CartDispatchDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_dispatch_dropped_total",
			Help: "Cart change events dropped because the dispatcher was closed.",
		},
	)

	CartDispatchCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_dispatch_coalesced_total",
			Help: "Queued cart change events replaced by a newer snapshot of the same cart.",
		},
	)
)

const (
	SyncUpserted = "upserted"
	SyncDeleted  = "deleted"
	SyncFailed   = "failed"

	OutcomeCreated       = "created"
	OutcomeInvalidForm   = "invalid_form"
	OutcomeEmptyCart     = "empty_cart"
	OutcomeMissingPrices = "missing_prices"
	OutcomeRejected      = "rejected"
	OutcomeReconstructed = "reconstructed"
	OutcomeError         = "error"
)

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. It is installed per route so the mux
// pattern is known and ids do not explode the path label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		defer func() {

			path := routeLabel(r)
			statusCodeStr := strconv.Itoa(rw.statusCode)

			httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, path).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// routeLabel prefers the matched ServeMux pattern, minus its method.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}

	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}

	return r.Pattern
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
