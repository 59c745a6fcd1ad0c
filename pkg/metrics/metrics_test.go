package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	before := testutil.ToFloat64(FeedbackSubmissions.WithLabelValues(Outcome(nil)))
	FeedbackSubmissions.WithLabelValues(Outcome(nil)).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(FeedbackSubmissions.WithLabelValues("ok")))
	assert.Equal(t, "error", Outcome(errors.New("boom")))

	n, err := testutil.GatherAndCount(reg, "unified_feedback_submissions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
