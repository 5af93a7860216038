package metrics

import (
	"saas-subscription-backend/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionsTotal,
		subscriptionTransitions,
		reconcilerSyncsTotal,
	)
}

var (
	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscription rows by status.",
		},
		[]string{"status"}, // 'active', 'past_due', 'unpaid', 'canceled'
	)

	subscriptionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_transitions_total",
			Help: "Status transitions applied to subscription rows, by target status and origin (sync/event/reconciler).",
		},
		[]string{"to", "origin"},
	)

	reconcilerSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_syncs_total",
			Help: "Background reconciler row syncs by result.",
		},
		[]string{"result"}, // 'updated', 'unchanged', 'error'
	)
)

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusActive,
		model.SubscriptionStatusPastDue,
		model.SubscriptionStatusUnpaid,
		model.SubscriptionStatusCanceled,
	}
	for _, status := range statuses {
		if count, ok := counts[status]; ok {
			subscriptionsTotal.WithLabelValues(string(status)).Set(float64(count))
		}
	}
}

func IncSubscriptionTransition(to model.SubscriptionStatus, origin string) {
	subscriptionTransitions.WithLabelValues(string(to), norm(origin)).Inc()
}

func IncReconcilerSync(result string) {
	reconcilerSyncsTotal.WithLabelValues(norm(result)).Inc()
}
