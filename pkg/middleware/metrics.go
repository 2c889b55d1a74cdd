package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
)

// MetricsMiddleware records request counts and latencies labeled by
// route template (not the raw path, to keep cardinality bounded).
func MetricsMiddleware(serviceName string) gin.HandlerFunc {
	prometheus.MustRegister(requestCounter, requestDuration)

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		requestCounter.WithLabelValues(serviceName, c.Request.Method, path, status).Inc()
		requestDuration.WithLabelValues(serviceName, c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
