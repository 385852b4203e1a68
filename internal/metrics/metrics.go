package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	conflictChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meetroom",
			Name:      "conflict_checks_total",
			Help:      "Count of conflict checks by result kind.",
		},
		[]string{"result"},
	)

	bookingFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meetroom",
			Name:      "booking_fetches_total",
			Help:      "Count of upstream booking fetches by outcome.",
		},
		[]string{"outcome"},
	)

	malformedRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meetroom",
			Name:      "malformed_records_total",
			Help:      "Count of upstream booking records that failed to parse.",
		},
	)

	staleResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meetroom",
			Name:      "stale_responses_total",
			Help:      "Count of fetch responses discarded because a newer request superseded them.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meetroom",
			Name:      "http_requests_total",
			Help:      "Count of handled HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	snapshotFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meetroom",
			Name:      "snapshot_fallbacks_total",
			Help:      "Count of calendar renders served from the local snapshot after a fetch failure.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(conflictChecks, bookingFetches, malformedRecords, staleResponses, snapshotFallbacks, httpRequests)
	})
}

func IncConflictCheck(result string) {
	conflictChecks.WithLabelValues(result).Inc()
}

func IncBookingFetch(outcome string) {
	bookingFetches.WithLabelValues(outcome).Inc()
}

func IncMalformedRecord() {
	malformedRecords.Inc()
}

func IncStaleResponse() {
	staleResponses.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncSnapshotFallback() {
	snapshotFallbacks.Inc()
}
