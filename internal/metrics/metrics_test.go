package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestEvaluationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncSuccess()
	m.IncFailure("VALIDATION_ERROR")
	m.IncFailure("")
	m.IncCompliance("passed")
	m.ObserveEvaluation(150 * time.Millisecond)

	require.Equal(t, float64(1), testutil.ToFloat64(m.success))
	require.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("VALIDATION_ERROR")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("unknown")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.compliance.WithLabelValues("passed")))

	count, err := testutil.GatherAndCount(reg, "tender_evaluation_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := New(nil)
	require.NotPanics(t, func() {
		m.IncSuccess()
		m.IncFailure("x")
		m.IncCompliance("failed")
		m.ObserveEvaluation(time.Second)
	})

	var nilMetrics *EvaluationMetrics
	require.NotPanics(t, func() { nilMetrics.IncSuccess() })
}
