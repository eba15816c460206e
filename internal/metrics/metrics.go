// Package metrics exposes Prometheus counters for the scale controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/scale-controller/internal/domain/scale"
)

const namespace = "scale_controller"

// Metrics counts handled events. A nil *Metrics ignores observations.
type Metrics struct {
	outcomes    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	conflicts   prometheus.Counter
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Alarm events handled, by outcome and no-op reason.",
		}, []string{"outcome", "reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Persisted scale transitions.",
		}, []string{"from", "to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failures by error kind, including non-fatal publish failures.",
		}, []string{"kind"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_conflicts_total",
			Help:      "Conditional writes rejected because the parameter changed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.outcomes, m.transitions, m.failures, m.conflicts)
	}

	return m
}

// ObserveOutcome counts a successful handling.
func (m *Metrics) ObserveOutcome(outcome *scale.Outcome) {
	if m == nil || outcome == nil {
		return
	}

	m.outcomes.WithLabelValues(string(outcome.Kind), outcome.Reason).Inc()

	if outcome.Changed() {
		m.transitions.WithLabelValues(outcome.From.String(), outcome.To.String()).Inc()
	}

	if outcome.PublishErr != nil {
		m.failures.WithLabelValues(string(scale.KindNotificationPublish)).Inc()
	}
}

// ObserveFailure counts a failed handling.
func (m *Metrics) ObserveFailure(kind scale.ErrorKind) {
	if m == nil {
		return
	}

	m.failures.WithLabelValues(string(kind)).Inc()
}

// ObserveConflict counts a rejected conditional write.
func (m *Metrics) ObserveConflict() {
	if m == nil {
		return
	}

	m.conflicts.Inc()
}
