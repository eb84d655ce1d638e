package metrics

import (
	"time"
)

// Email kinds
const (
	EmailResponse = "response"
	EmailFeedback = "feedback"
)

// RecordRejection counts a client error code returned by an operation
func RecordRejection(operation, code string) {
	Get().RejectionsTotal.WithLabelValues(operation, code).Inc()
}

// RecordEmail counts an email send attempt
func RecordEmail(kind string, err error) {
	Get().EmailsTotal.WithLabelValues(kind, status(err)).Inc()
}

// RecordSearch records a keyword search against backend
func RecordSearch(backend string, duration time.Duration, err error) {
	m := Get()
	m.SearchQueriesTotal.WithLabelValues(backend, status(err)).Inc()
	m.SearchDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordRateLimitExceeded counts a throttled request
func RecordRateLimitExceeded(limiter string) {
	Get().RateLimitExceededTotal.WithLabelValues(limiter).Inc()
}

// RecordError counts an unexpected error at endpoint
func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
