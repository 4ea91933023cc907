// Package metrics wires Prometheus collection for the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the request-level metrics exposed on /metrics.
type Collector struct {
	requests prometheus.CounterVec
	latency  prometheus.Histogram
	uploads  prometheus.Counter
}

// NewCollector registers the service metrics on the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: *prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companypage_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "companypage_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "companypage_object_uploads_total",
			Help: "Objects uploaded to the object store.",
		}),
	}

	reg.MustRegister(&c.requests, c.latency, c.uploads)

	return c
}

// RecordRequest records one completed HTTP request.
func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.latency.Observe(duration.Seconds())
}

// RecordUpload records one successful object-store upload.
func (c *Collector) RecordUpload() {
	c.uploads.Inc()
}

// Middleware returns an HTTP middleware recording every request.
func (c *Collector) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			c.RecordRequest(r.Method, ww.Status(), time.Since(start))
		})
	}
}

// Handler returns the Prometheus scrape handler for the gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
