package resource

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

var (
	// backendRequestsTotal counts backend calls by resource, operation and outcome
	backendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_backend_requests_total",
		Help: "Backend requests by resource, operation and outcome",
	}, []string{"resource", "operation", "outcome"})

	// backendRequestDuration tracks backend latency, retries included
	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_backend_request_duration_seconds",
		Help:    "Backend request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"resource", "operation"})
)

func observe(resource, operation string, start time.Time, err error) {
	backendRequestDuration.WithLabelValues(resource, operation).Observe(time.Since(start).Seconds())
	backendRequestsTotal.WithLabelValues(resource, operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrNetwork):
		return "network_error"
	case errors.Is(err, apperrors.ErrServer):
		return "server_error"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation_error"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	default:
		return "canceled"
	}
}
