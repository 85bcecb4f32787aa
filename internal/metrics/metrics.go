package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	DocumentsGenerated     prometheus.Counter
	DocumentsFailed        prometheus.Counter
	EmailsSent             prometheus.Counter
	EmailsFailed           prometheus.Counter
	WebhookEventsProcessed *prometheus.CounterVec
	WebhookEventsRejected  prometheus.Counter
	RecordsImported        prometheus.Counter
}

// New registers the pipeline collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "letterforge_documents_generated_total",
			Help: "Documents generated successfully.",
		}),
		DocumentsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "letterforge_documents_failed_total",
			Help: "Document generation attempts that failed.",
		}),
		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "letterforge_emails_sent_total",
			Help: "Email jobs handed to the provider.",
		}),
		EmailsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "letterforge_emails_failed_total",
			Help: "Email send attempts that exhausted their retries.",
		}),
		WebhookEventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "letterforge_webhook_events_processed_total",
			Help: "Webhook events by outcome.",
		}, []string{"outcome"}),
		WebhookEventsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "letterforge_webhook_batches_rejected_total",
			Help: "Webhook batches rejected for a bad signature.",
		}),
		RecordsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "letterforge_records_imported_total",
			Help: "Dynamic records imported.",
		}),
	}
}

// NewNop returns metrics bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
