package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookEventsTotal,
		webhookEventDuration,
		webhookMalformedMetadataTotal,
		webhookSignatureFailuresTotal,
	)
}

// Webhook outcomes
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairpay_webhook_events_total",
			Help: "Provider events by type and outcome (processed/ignored/duplicate/failed).",
		},
		[]string{"type", "outcome"},
	)

	webhookEventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fairpay_webhook_event_duration_seconds",
			Help:    "Time spent reconciling one provider event.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	webhookMalformedMetadataTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairpay_webhook_malformed_metadata_total",
			Help: "Events acknowledged without action because their metadata could not be used.",
		},
		[]string{"type"},
	)

	webhookSignatureFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairpay_webhook_signature_failures_total",
			Help: "Rejected webhook deliveries by reason (missing/invalid).",
		},
		[]string{"reason"},
	)
)

func ObserveWebhookEvent(eventType, outcome string, elapsed time.Duration) {
	webhookEventsTotal.WithLabelValues(norm(eventType), outcome).Inc()
	webhookEventDuration.WithLabelValues(norm(eventType)).Observe(elapsed.Seconds())
}

func IncMalformedMetadata(eventType string) {
	webhookMalformedMetadataTotal.WithLabelValues(norm(eventType)).Inc()
}

func IncSignatureFailure(reason string) {
	webhookSignatureFailuresTotal.WithLabelValues(norm(reason)).Inc()
}
