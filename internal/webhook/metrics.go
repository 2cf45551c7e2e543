// AngelaMos | 2026
// metrics.go

package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeMissingSignature = "missing_signature"
	outcomeMisconfigured    = "misconfigured"
	outcomeInvalidSignature = "invalid_signature"
	outcomeInvalidPayload   = "invalid_payload"
	outcomeTooLarge         = "too_large"
	outcomeDuplicate        = "duplicate"
	outcomeProcessed        = "processed"
	outcomeFailed           = "failed"
)

type Metrics struct {
	events *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "Gateway webhook deliveries by outcome",
			},
			[]string{"provider", "outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.events)
	}
	return m
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(providerPaystack, outcome).Inc()
}
