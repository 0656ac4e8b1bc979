package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplyguard_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"status"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supplyguard_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
		},
		[]string{"path"},
	)
	promAnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplyguard_analyses_total",
			Help: "Total number of risk analyses performed",
		},
		[]string{"agent"},
	)
	promRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supplyguard_rate_limited_requests_total",
			Help: "Total number of requests rejected by rate limiting",
		},
	)
)

func init() {
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
	prometheus.MustRegister(promAnalysesTotal)
	prometheus.MustRegister(promRateLimited)
}

// apiMetrics tracks counters for the JSON /metrics endpoint.
type apiMetrics struct {
	totalRequests   int64
	successRequests int64
	clientErrors    int64
	serverErrors    int64
	startTime       time.Time
}

var metrics = &apiMetrics{startTime: time.Now()}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		atomic.AddInt64(&metrics.totalRequests, 1)
		label := "success"
		switch {
		case rec.status >= 500:
			atomic.AddInt64(&metrics.serverErrors, 1)
			label = "server_error"
		case rec.status >= 400:
			atomic.AddInt64(&metrics.clientErrors, 1)
			label = "client_error"
		default:
			atomic.AddInt64(&metrics.successRequests, 1)
		}
		promRequestsTotal.WithLabelValues(label).Inc()

		path := r.URL.Path
		if route := muxCurrentRoute(r); route != "" {
			path = route
		}
		promRequestDuration.WithLabelValues(path).Observe(float64(time.Since(start).Milliseconds()))
	})
}

// muxCurrentRoute returns the matched path template so histogram labels
// stay low-cardinality for parameterized routes.
func muxCurrentRoute(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tmpl
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	total := atomic.LoadInt64(&metrics.totalRequests)
	success := atomic.LoadInt64(&metrics.successRequests)
	uptime := time.Since(metrics.startTime).Seconds()

	rps := float64(0)
	if uptime > 0 {
		rps = float64(total) / uptime
	}
	successRate := float64(100)
	if total > 0 {
		successRate = float64(success) * 100 / float64(total)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":       uptime,
		"total_requests":       total,
		"success_requests":     success,
		"client_errors":        atomic.LoadInt64(&metrics.clientErrors),
		"server_errors":        atomic.LoadInt64(&metrics.serverErrors),
		"requests_per_second":  rps,
		"success_rate_percent": successRate,
		"timestamp":            time.Now().UTC(),
	})
}
