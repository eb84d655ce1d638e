package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec
	HTTPActiveRequests  *prometheus.GaugeVec

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec

	// Business metrics
	PostsCreatedTotal  prometheus.Counter
	RepliesTotal       prometheus.Counter
	RejectionsTotal    *prometheus.CounterVec
	EmailsTotal        *prometheus.CounterVec
	PostsLoadedTotal   *prometheus.CounterVec
	SearchQueriesTotal *prometheus.CounterVec
	SearchDuration     *prometheus.HistogramVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_size_bytes",
					Help:    "HTTP request body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 5),
				},
				[]string{"method", "path"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 6),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveRequests: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_requests",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method", "path"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the IP rate limiter",
				},
				[]string{"limiter"},
			),

			PostsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lingxijiao_posts_created_total",
					Help: "Posts successfully created",
				},
			),
			RepliesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lingxijiao_replies_total",
					Help: "Replies successfully recorded",
				},
			),
			RejectionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lingxijiao_rejections_total",
					Help: "Requests rejected with a client error code",
				},
				[]string{"operation", "code"},
			),
			EmailsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lingxijiao_emails_total",
					Help: "Outbound emails by kind and result",
				},
				[]string{"kind", "status"},
			),
			PostsLoadedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lingxijiao_posts_loaded_total",
					Help: "Posts returned by load requests",
				},
				[]string{"gender"},
			),
			SearchQueriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lingxijiao_search_queries_total",
					Help: "Keyword searches by backend and result",
				},
				[]string{"backend", "status"},
			),
			SearchDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lingxijiao_search_duration_seconds",
					Help:    "Keyword search latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"backend"},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}
