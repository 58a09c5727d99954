package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeError = "error"
)

// Metrics counts gate evaluations.
type Metrics struct {
	Evaluations *prometheus.CounterVec
}

// New registers gate metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Evaluations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "guestman_gate_evaluations_total",
			Help: "Gate evaluations by gate and outcome",
		}, []string{"gate", "outcome"}), // outcome: "pass", "fail", "error"
	}
}

// IncrementOutcome records one evaluation.
func (m *Metrics) IncrementOutcome(gate, outcome string) {
	if m != nil {
		m.Evaluations.WithLabelValues(gate, outcome).Inc()
	}
}
