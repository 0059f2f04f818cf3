package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationMetrics: метрики расчёта баллов и проверок соответствия.
type EvaluationMetrics struct {
	duration   prometheus.Histogram
	success    prometheus.Counter
	failure    *prometheus.CounterVec
	compliance *prometheus.CounterVec
}

// New регистрирует метрики в reg. При reg == nil возвращает заглушку.
func New(reg prometheus.Registerer) *EvaluationMetrics {
	if reg == nil {
		return &EvaluationMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tender_evaluation_duration_seconds",
		Help:    "Duration of tender evaluation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	success := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tender_evaluation_success_total",
		Help: "Successful tender evaluation runs.",
	})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tender_evaluation_failure_total",
		Help: "Failed tender evaluation runs by error code.",
	}, []string{"code"})
	compliance := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compliance_checks_total",
		Help: "Compliance check outcomes per submission.",
	}, []string{"result"})
	reg.MustRegister(duration, success, failure, compliance)

	return &EvaluationMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		compliance: compliance,
	}
}

func (m *EvaluationMetrics) ObserveEvaluation(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

func (m *EvaluationMetrics) IncSuccess() {
	if m == nil || m.success == nil {
		return
	}
	m.success.Inc()
}

func (m *EvaluationMetrics) IncFailure(code string) {
	if m == nil || m.failure == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.failure.WithLabelValues(code).Inc()
}

func (m *EvaluationMetrics) IncCompliance(result string) {
	if m == nil || m.compliance == nil {
		return
	}
	m.compliance.WithLabelValues(result).Inc()
}
