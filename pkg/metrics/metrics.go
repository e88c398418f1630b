package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes.
const (
	UploadAccepted    = "accepted"
	UploadRejected    = "rejected"
	UploadRateLimited = "rate_limited"
)

// Metrics owns a Prometheus registry with the HTTP and file manager collectors.
type Metrics struct {
	reg            *prometheus.Registry
	inflight       prometheus.Gauge
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	uploads        *prometheus.CounterVec
	uploadBytes    prometheus.Counter
	securityEvents *prometheus.CounterVec
	syncedFiles    *prometheus.CounterVec
}

// New creates a Metrics instance with a fresh registry. Go runtime and
// process collectors are included.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of inflight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request latencies.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "uploads_total",
			Help:      "Upload attempts by outcome.",
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "uploaded_bytes_total",
			Help:      "Bytes accepted through direct uploads and registered objects.",
		}),
		securityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "security",
			Name:      "events_total",
			Help:      "Rejected requests by status code.",
		}, []string{"code"}),
		syncedFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "sync_checked_total",
			Help:      "Files checked against object storage by resulting status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.inflight, m.requests, m.latency,
		m.uploads, m.uploadBytes, m.securityEvents, m.syncedFiles,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Middleware records request counts and latencies labelled with the chi
// route pattern, so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RecordUpload counts an upload attempt. size is added for accepted uploads.
func (m *Metrics) RecordUpload(outcome string, size int64) {
	m.uploads.WithLabelValues(outcome).Inc()
	if outcome == UploadAccepted && size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}

// RecordSecurityEvent counts a rejected request.
func (m *Metrics) RecordSecurityEvent(status int) {
	m.securityEvents.WithLabelValues(strconv.Itoa(status)).Inc()
}

// RecordSync counts files checked by a storage sync.
func (m *Metrics) RecordSync(synced, failed int) {
	m.syncedFiles.WithLabelValues("synced").Add(float64(synced))
	m.syncedFiles.WithLabelValues("failed").Add(float64(failed))
}
