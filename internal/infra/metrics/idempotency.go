package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(idempotencyRequestsTotal)
}

var idempotencyRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "idempotency_requests_total",
		Help: "Keyed mutating requests by outcome (hit/miss/store_error).",
	},
	[]string{"outcome"},
)

func IncIdempotency(outcome string) {
	idempotencyRequestsTotal.WithLabelValues(outcome).Inc()
}
