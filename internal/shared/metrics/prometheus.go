package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	legalRequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legal_requests_created_total",
			Help: "Total number of legal requests created",
		},
		[]string{"category", "urgency"},
	)

	legalStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legal_status_changes_total",
			Help: "Total number of legal request status changes",
		},
		[]string{"from_status", "to_status"},
	)

	amendmentTokensRedeemed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "amendment_tokens_redeemed_total",
			Help: "Total number of amendment tokens redeemed",
		},
	)

	terminationsInitiated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "terminations_initiated_total",
			Help: "Total number of employee terminations initiated",
		},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification delivery attempts",
		},
		[]string{"provider", "status"},
	)

	scopeDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scope_decisions_total",
			Help: "Total number of province scope resolutions",
		},
		[]string{"scope"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath keeps label cardinality bounded for paths carrying IDs
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordLegalRequestCreated records a legal request creation
func RecordLegalRequestCreated(category, urgency string) {
	legalRequestsCreated.WithLabelValues(category, urgency).Inc()
}

// RecordLegalStatusChange records a legal request status transition
func RecordLegalStatusChange(fromStatus, toStatus string) {
	legalStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordTokenRedeemed records a successful amendment token redemption
func RecordTokenRedeemed() {
	amendmentTokensRedeemed.Inc()
}

// RecordTerminationInitiated records an initiated employee termination
func RecordTerminationInitiated() {
	terminationsInitiated.Inc()
}

// RecordNotification records a notification delivery attempt
func RecordNotification(provider string, ok bool) {
	status := "failed"
	if ok {
		status = "sent"
	}
	notificationsSent.WithLabelValues(provider, status).Inc()
}

// RecordScopeDecision records the scope a request was resolved to
func RecordScopeDecision(scope string) {
	scopeDecisions.WithLabelValues(scope).Inc()
}

// RecordDBConnections records active database connections
func RecordDBConnections(count int) {
	dbConnectionsActive.Set(float64(count))
}
