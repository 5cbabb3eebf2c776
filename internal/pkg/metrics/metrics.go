// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_http_requests_total",
			Help: "Total HTTP requests handled.",
		},
		[]string{"method", "path", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gym_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "code"},
	)

	// LifecycleOperations counts subscription and payment state changes.
	// outcome is success, rejected (invariant violation) or error.
	LifecycleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_lifecycle_operations_total",
			Help: "Subscription and payment lifecycle operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_events_published_total",
			Help: "Lifecycle events handed to publishers, by sink and result.",
		},
		[]string{"sink", "result"},
	)
)
