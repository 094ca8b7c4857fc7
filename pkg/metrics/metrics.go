// Package metrics provides Prometheus instrumentation for the API.
//
//	r.Use(metrics.Middleware())
//	r.HandleFunc("/metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bazaar"

var (
	// RequestDuration tracks HTTP latency by method, route pattern and status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// OTPEvents counts registration workflow outcomes
	// ("issued", "mail_failed", "verified", "expired", "invalid", "no_pending", "already_registered").
	OTPEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "otp",
			Name:      "events_total",
			Help:      "OTP registration workflow outcomes.",
		},
		[]string{"outcome"},
	)

	// PendingSwept counts pending registrations removed by the sweeper.
	PendingSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "otp",
		Name:      "pending_swept_total",
		Help:      "Expired pending registrations removed by the sweeper.",
	})

	// ImageOps counts remote image host calls by op ("upload"|"destroy") and result.
	ImageOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "operations_total",
			Help:      "Remote image host operations.",
		},
		[]string{"op", "result"},
	)

	// EventsPublished counts domain events handed to the external sink.
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events written to the external sink.",
		},
		[]string{"event", "result"},
	)
)

// DefaultRegistry holds every collector exposed on /metrics.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		OTPEvents,
		PendingSwept,
		ImageOps,
		EventsPublished,
	)
}

// Result maps an error to a "success"/"error" label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records duration, count and in-flight requests. The route
// label is chi's pattern (e.g. /api/products/{id}) to keep cardinality low.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := strconv.Itoa(rr.status)

			RequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, route, status).Inc()
		})
	}
}

// Handler exposes DefaultRegistry.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return h.ServeHTTP
}
