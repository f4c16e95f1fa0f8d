package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the check engine.
type Metrics struct {
	ChecksTotal        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	CheckLatency       prometheus.Histogram
	VerifyLatency      prometheus.Histogram
}

// New creates and registers all check metrics.
func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rtw_checks_total",
			Help: "Total number of completed checks, labeled by outcome and requester role",
		}, []string{"outcome", "requester"}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rtw_validation_failures_total",
			Help: "Total number of requests rejected by input validation, labeled by reason code",
		}, []string{"reason"}),
		CheckLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rtw_check_latency_seconds",
			Help:    "End-to-end latency of check evaluation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rtw_verify_latency_seconds",
			Help:    "Latency of the verification strategy call in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementOutcome increments the completed-checks counter.
func (m *Metrics) IncrementOutcome(outcome, requester string) {
	m.ChecksTotal.WithLabelValues(outcome, requester).Inc()
}

// IncrementValidationFailure increments the validation-failure counter.
func (m *Metrics) IncrementValidationFailure(reason string) {
	m.ValidationFailures.WithLabelValues(reason).Inc()
}

// ObserveCheckLatency records end-to-end check latency.
func (m *Metrics) ObserveCheckLatency(d time.Duration) {
	m.CheckLatency.Observe(d.Seconds())
}

// ObserveVerifyLatency records strategy call latency.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	m.VerifyLatency.Observe(d.Seconds())
}
