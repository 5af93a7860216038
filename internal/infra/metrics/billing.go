package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		billingEventsTotal,
		billingGatewayCalls,
		checkoutSessionsTotal,
	)
}

var (
	billingEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_events_total",
			Help: "Inbound provider events by kind and outcome (applied/noop/permanent_error/transient_error/rejected).",
		},
		[]string{"kind", "outcome"},
	)

	billingGatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_gateway_calls_total",
			Help: "Outbound billing provider calls by operation and success.",
		},
		[]string{"op", "success"},
	)

	checkoutSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions created.",
		},
	)
)

func IncBillingEvent(kind, outcome string) {
	billingEventsTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}

func IncGatewayCall(op string, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	billingGatewayCalls.WithLabelValues(norm(op), s).Inc()
}

func IncCheckoutSessions() { checkoutSessionsTotal.Inc() }
