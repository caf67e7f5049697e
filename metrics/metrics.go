// Package metrics provides Prometheus instrumentation for the overtime
// engine: calculation counts by method, cascade activity, punch
// rejections, and HTTP request metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "overtime"

var (
	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculations_total",
		Help:      "Day-record classifications performed, by calculation method.",
	}, []string{"method"})

	cascadeRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_runs_total",
		Help:      "Weekly recalculation cascades executed.",
	})

	cascadeWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_writes_total",
		Help:      "Day records rewritten by cascades.",
	})

	cascadeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cascade_duration_seconds",
		Help:      "Wall time of weekly recalculation cascades.",
		Buckets:   prometheus.DefBuckets,
	})

	punchRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "punch_rejections_total",
		Help:      "Punches rejected by the status machine.",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method and status.",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// ObserveCalculation counts one classification by method name.
func ObserveCalculation(method string) {
	calculationsTotal.WithLabelValues(method).Inc()
}

// ObserveCascade records one completed cascade run.
func ObserveCascade(duration time.Duration, writes int) {
	cascadeRunsTotal.Inc()
	cascadeWritesTotal.Add(float64(writes))
	cascadeDuration.Observe(duration.Seconds())
}

// ObservePunchRejected counts one rejected punch.
func ObservePunchRejected() {
	punchRejectionsTotal.Inc()
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency for every route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
