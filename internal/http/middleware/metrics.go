package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP-level metrics, labeled by templated route so cardinality stays bounded.
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed, by method, route, and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)
)

// Domain metrics incremented by the handlers.
var (
	// AdviceRequestsTotal counts advice requests by outcome
	// (ok, quota_exceeded, invalid, error).
	AdviceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advice_requests_total",
			Help: "Advice requests processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// QuotaExceededTotal counts requests rejected by the monthly quota,
	// by subscription tier.
	QuotaExceededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_exceeded_total",
			Help: "Requests rejected because the monthly quota was exhausted, by tier.",
		},
		[]string{"tier"},
	)

	// MatchesReturned observes how many vibe matches each advice response
	// carried, a proxy for catalog coverage.
	MatchesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advice_matches_returned",
			Help:    "Number of vibe matches returned per advice response.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)
)

// Metrics records request count, latency, and in-flight gauge for every
// request. Unmatched routes are collapsed into a single "unmatched" label.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		c.Next()

		httpRequestsInFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
