package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook response statuses.
const (
	StatusCreated      = "created"
	StatusUpdated      = "updated"
	StatusDuplicate    = "duplicate"
	StatusUnauthorized = "unauthorized"
	StatusBadRequest   = "bad_request"
	StatusError        = "error"
)

type Metrics struct {
	Requests *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestman_webhook_requests_total",
			Help: "Webhook deliveries by response status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementRequests(status string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(status).Inc()
}
