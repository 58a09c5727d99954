package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeError    = "error"
)

// Metrics counts identity resolutions.
type Metrics struct {
	Resolved *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestman_customers_resolved_total",
			Help: "Identity resolutions by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementResolved(outcome string) {
	if m == nil {
		return
	}
	m.Resolved.WithLabelValues(outcome).Inc()
}
