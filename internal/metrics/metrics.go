package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rezervi_booking_attempts_total",
			Help: "Booking admission attempts by outcome",
		},
		[]string{"outcome"},
	)

	BookingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rezervi_booking_duration_seconds",
			Help:    "Time spent in the booking admission transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rezervi_status_transitions_total",
			Help: "Reservation status change requests",
		},
		[]string{"from", "to", "outcome"},
	)

	AvailabilityReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rezervi_availability_reads_total",
			Help: "Availability reads by source of the occupancy snapshot",
		},
		[]string{"source"},
	)

	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rezervi_outbox_published_total",
			Help: "Outbox events relayed to the broker",
		},
		[]string{"result"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rezervi_rate_limited_total",
			Help: "Requests rejected by the booking rate limiter",
		},
	)
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeReplayed    = "replayed"
	OutcomeConflict    = "conflict"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
	SourceCache        = "cache"
	SourceStore        = "store"
	SourceDegraded     = "degraded"
	ResultPublished    = "published"
	ResultPublishError = "error"
)
