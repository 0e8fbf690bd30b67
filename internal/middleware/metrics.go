package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novelhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	novelReadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "novelhub_novel_reads_total",
			Help: "Total number of successful novel detail reads",
		},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelhub_uploads_total",
			Help: "Image uploads by outcome",
		},
		[]string{"outcome"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "novelhub_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// Metrics records Prometheus request metrics
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := routePath(c)
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())

		switch {
		case c.Request.Method == "GET" && path == "/api/v1/novels/:id" && status == 200:
			novelReadsTotal.Inc()
		case c.Request.Method == "POST" && isUploadRoute(path):
			uploadsTotal.WithLabelValues(uploadOutcome(status)).Inc()
		}
	}
}

// routePath returns the matched route pattern so ids do not become labels
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}

func isUploadRoute(path string) bool {
	return strings.HasSuffix(path, "/upload") ||
		strings.HasSuffix(path, "/uploads") ||
		strings.HasSuffix(path, "/cover")
}

func uploadOutcome(status int) string {
	switch {
	case status < 400:
		return "ok"
	case status < 500:
		return "rejected"
	default:
		return "failed"
	}
}
