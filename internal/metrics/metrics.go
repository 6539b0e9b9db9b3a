package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	WebhookEvents *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Emails        *prometheus.CounterVec
}

// New registers the service collectors on reg. Tests pass a fresh registry;
// main passes the one served on /metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regbot_webhook_events_total",
			Help: "Webhook events received, by handling type",
		}, []string{"type"}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regbot_registrations_total",
			Help: "Registration attempts, by outcome",
		}, []string{"outcome"}),
		Emails: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regbot_notification_emails_total",
			Help: "Admin notification emails, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveEvent(kind string) {
	m.WebhookEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEmail(outcome string) {
	m.Emails.WithLabelValues(outcome).Inc()
}
