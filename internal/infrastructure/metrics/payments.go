package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

func init() {
	register(
		paymentsInitiatedTotal,
		paymentsReconciledTotal,
		bestEffortFailuresTotal,
		providerBreakerState,
	)
}

var (
	paymentsInitiatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairpay_payments_initiated_total",
			Help: "Payments started by kind (dossier/injonction/retry).",
		},
		[]string{"kind"},
	)

	paymentsReconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairpay_payments_reconciled_total",
			Help: "Payment rows moved by reconciliation, by resulting status.",
		},
		[]string{"status"},
	)

	bestEffortFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairpay_best_effort_failures_total",
			Help: "Swallowed failures of non-critical steps (invoice/subscription/procedure).",
		},
		[]string{"step"},
	)

	providerBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fairpay_provider_breaker_state",
			Help: "Payment provider circuit breaker state (0 closed, 1 half-open, 2 open).",
		},
	)
)

func IncPaymentInitiated(kind string) {
	paymentsInitiatedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncPaymentReconciled(status string) {
	paymentsReconciledTotal.WithLabelValues(norm(status)).Inc()
}

func IncBestEffortFailure(step string) {
	bestEffortFailuresTotal.WithLabelValues(norm(step)).Inc()
}

// SetBreakerState matches the gobreaker.Settings.OnStateChange hook of the provider gateway
func SetBreakerState(_, to gobreaker.State) {
	providerBreakerState.Set(float64(to))
}
