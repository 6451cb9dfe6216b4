package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ExamsFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_finalized_total",
			Help: "Finalized exam attempts by verdict",
		},
		[]string{"verdict"},
	)

	CertificatesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificate_issue_total",
			Help: "Certificate issue calls by outcome (created, existing)",
		},
		[]string{"outcome"},
	)

	IdentifierCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certificate_identifier_collisions_total",
			Help: "Certificate number or verification code collisions that forced regeneration",
		},
	)

	AttorneyResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attorney_resolutions_total",
			Help: "Attorney resolution results by status",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ExamsFinalized,
			CertificatesIssued,
			IdentifierCollisions,
			AttorneyResolutions,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
