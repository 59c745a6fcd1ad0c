package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "unified"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	ProjectOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "project_operations_total", Help: "Project operations by kind and outcome."},
		[]string{"op", "outcome"},
	)
	FeedbackSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "feedback_submissions_total", Help: "Feedback submissions by outcome."},
		[]string{"outcome"},
	)
	Summaries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "summaries_total", Help: "Summary generations by reply format and outcome."},
		[]string{"format", "outcome"},
	)
	Exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "exports_total", Help: "Response exports by outcome."},
		[]string{"outcome"},
	)
)

// Outcome labels an operation result for the counters above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ProjectOps)
	reg.MustRegister(FeedbackSubmissions)
	reg.MustRegister(Summaries)
	reg.MustRegister(Exports)
}
