package intake

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes, used as the "outcome" label.
const (
	outcomeAccepted    = "accepted"
	outcomeReplayed    = "replayed"
	outcomeRateLimited = "rate_limited"
	outcomeMalformed   = "malformed"
	outcomeTooLarge    = "too_large"
	outcomeInvalid     = "invalid"
	outcomeStoreError  = "store_error"
)

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Application submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// auditFailures counts applications stored without their audit event.
	auditFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_audit_failures_total",
		Help: "Audit events that could not be written after a successful submission.",
	})

	rateLimitStoreErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_ratelimit_store_errors_total",
		Help: "Rate-limit checks that failed open because the counter store errored.",
	})
)

func init() {
	prometheus.MustRegister(submissionsTotal, auditFailures, rateLimitStoreErrors)
}
