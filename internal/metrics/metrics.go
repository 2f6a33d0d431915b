// Package metrics exposes Prometheus instrumentation for the quote relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes recorded by SubmissionsTotal.
const (
	OutcomeAccepted   = "accepted"
	OutcomeRejected   = "rejected"
	OutcomeSendFailed = "send_failed"
)

var (
	// SubmissionsTotal counts form submissions by final outcome.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quote_relay",
			Name:      "submissions_total",
			Help:      "Total number of form submissions by outcome",
		},
		[]string{"outcome"},
	)

	// DispatchDuration tracks end-to-end mail dispatch duration per submission.
	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "quote_relay",
			Name:      "dispatch_duration_seconds",
			Help:      "Mail dispatch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// AckFailuresTotal counts submitter acknowledgements that failed to send.
	// An acknowledgement failure never fails the request, so this counter and
	// the warning log are its only observable traces.
	AckFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quote_relay",
			Name:      "ack_failures_total",
			Help:      "Total number of failed submitter acknowledgement emails",
		},
	)
)

// RecordSubmission records a form submission with the given outcome.
func RecordSubmission(outcome string) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDispatch records the time taken to dispatch mail for one submission.
func ObserveDispatch(seconds float64) {
	DispatchDuration.Observe(seconds)
}

// RecordAckFailure records a failed submitter acknowledgement.
func RecordAckFailure() {
	AckFailuresTotal.Inc()
}
