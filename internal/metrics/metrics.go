// Package metrics registers the process's Prometheus collectors, mirroring
// the teacher's httpDuration/httpRequests vectors in cmd/server/main.go,
// extended with matcher-specific gauges: per-opinion queue depth,
// in-flight asks, and scheduler lag.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP request metrics, named and labeled exactly as the teacher's.
var (
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "voicematch_http_request_duration_seconds",
			Help: "HTTP request latencies in seconds",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicematch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// Matcher-domain metrics: index depth, outstanding asks, and how far
// behind wall-clock the scheduler driver is running.
var (
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voicematch_queue_depth",
			Help: "Number of eligible-to-ask candidates per opinion bucket",
		},
		[]string{"opinion"},
	)

	InFlightAsks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicematch_in_flight_asks",
			Help: "Number of users currently in the Asking state",
		},
	)

	SchedulerLagSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicematch_scheduler_lag_seconds",
			Help: "Seconds between a tick's due time and its dispatch",
		},
	)

	MatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voicematch_matches_total",
			Help: "Total number of completed partner hand-offs",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPDuration, HTTPRequests, QueueDepth, InFlightAsks, SchedulerLagSeconds, MatchesTotal)
}

// GinMiddleware returns a gin middleware observing HTTPDuration/HTTPRequests
// for every request, the same shape as the teacher's prometheusMiddleware.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := statusLabel(c.Writer.Status())

		HTTPDuration.WithLabelValues(c.Request.Method, c.FullPath(), status).Observe(duration.Seconds())
		HTTPRequests.WithLabelValues(c.Request.Method, c.FullPath(), status).Inc()
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordSchedulerLag observes the gap between a tick's due timestamp and
// the moment it was actually dispatched.
func RecordSchedulerLag(lag time.Duration) {
	SchedulerLagSeconds.Set(lag.Seconds())
}
