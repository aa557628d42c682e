// Package metrics holds the Prometheus instruments of the review engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReviewsTotal counts applied reviews by rating
	ReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocabsrs_reviews_total",
		Help: "Reviews applied to progress records, by rating",
	}, []string{"rating"})

	// ReviewFailures counts rejected or failed reviews by reason
	ReviewFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocabsrs_review_failures_total",
		Help: "Reviews that were not applied, by reason",
	}, []string{"reason"})

	// StoreLatency tracks progress store calls
	StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vocabsrs_store_duration_seconds",
		Help:    "Progress store call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"operation"})

	// DueQueueSize tracks the length of served due queues
	DueQueueSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vocabsrs_due_queue_size",
		Help:    "Number of items in served due queues",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 200},
	})

	// SessionsTotal counts finished review sessions by outcome
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocabsrs_sessions_total",
		Help: "Finished review sessions, by outcome",
	}, []string{"outcome"})

	// HTTPRequests tracks API request duration by route and status
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vocabsrs_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// Reminders counts due-card reminders by result
	Reminders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocabsrs_reminders_total",
		Help: "Due-card reminders sent to learners, by result",
	}, []string{"result"})
)

// Session outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeAbandoned = "abandoned"
	OutcomeExpired   = "expired"
)

// Failure reasons
const (
	ReasonValidation  = "validation"
	ReasonNotFound    = "not_found"
	ReasonConflict    = "conflict"
	ReasonUnavailable = "store_unavailable"
)
