package metrics

import (
	"subscription-billing/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionsInitiatedTotal,
		subscriptionsCanceledTotal,
		subscriptionsFinalizedTotal,
		subscriptionsTotal,
	)
}

var (
	subscriptionsInitiatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_initiated_total",
			Help: "Total number of subscriptions initiated (pending records created).",
		},
	)

	subscriptionsCanceledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_canceled_total",
			Help: "Cancellations by kind (immediate/scheduled).",
		},
		[]string{"kind"},
	)

	subscriptionsFinalizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_finalized_total",
			Help: "Scheduled cancellations finalized by the period-end worker.",
		},
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscriptions by status.",
		},
		[]string{"status"},
	)
)

func IncSubscriptionInitiated() {
	subscriptionsInitiatedTotal.Inc()
}

func IncSubscriptionCanceled(kind string) {
	subscriptionsCanceledTotal.WithLabelValues(kind).Inc()
}

func IncSubscriptionsFinalized(count int) {
	subscriptionsFinalizedTotal.Add(float64(count))
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusPending,
		model.SubscriptionStatusActive,
		model.SubscriptionStatusTrialing,
		model.SubscriptionStatusPastDue,
		model.SubscriptionStatusCanceled,
		model.SubscriptionStatusCanceledAtPeriodEnd,
		model.SubscriptionStatusPaymentFailed,
	}
	for _, status := range statuses {
		subscriptionsTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
