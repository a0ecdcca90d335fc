package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookEventsTotal)
}

var webhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Provider webhook events by type and outcome (applied/duplicate/unmatched/ignored/invalid).",
	},
	[]string{"type", "outcome"},
)

func IncWebhookEvent(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}
