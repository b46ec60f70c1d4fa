package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsRegistry is grounded on the teacher pack's promauto.With(custom
// registry) pattern rather than the global default registry, so the
// engine's counters never collide with anything else in-process.
var metricsRegistry = prometheus.NewRegistry()

var (
	requestsTotal = promauto.With(metricsRegistry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quant_engine",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status class.",
		},
		[]string{"route", "status"},
	)

	requestDuration = promauto.With(metricsRegistry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quant_engine",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	streamSessionsActive = promauto.With(metricsRegistry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "quant_engine",
			Subsystem: "stream",
			Name:      "sessions_active",
			Help:      "Currently open SSE stream sessions.",
		},
	)

	liveSessionsActive = promauto.With(metricsRegistry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "quant_engine",
			Subsystem: "liveprice",
			Name:      "sessions_active",
			Help:      "Currently open live price WebSocket sessions.",
		},
	)
)

// metricsHandler exposes the custom registry for scraping.
func metricsHandler() http.Handler {
	return promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})
}

// instrument wraps an http.HandlerFunc with request-count and latency
// observation keyed by a fixed route label (not the raw path, to keep
// cardinality bounded).
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(route, statusClass(sw.status)).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so the SSE route can stream
// through the instrumentation wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
