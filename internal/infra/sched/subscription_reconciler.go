package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/repository"
	"saas-subscription-backend/internal/infra/metrics"
	"saas-subscription-backend/internal/infra/worker"
	"saas-subscription-backend/internal/usecase"
)

// SubscriptionReconciler periodically re-reads provider state for rows in
// non-terminal payment trouble (PAST_DUE, UNPAID) and for ACTIVE rows, and
// applies any drift. The webhook path is the primary mechanism; this pass
// covers lost deliveries and the subscribe crash window.
type SubscriptionReconciler struct {
	uc       usecase.ReconcileUseCase
	subs     repository.SubscriptionRepository
	pool     *worker.Pool
	interval time.Duration
	batch    int
	log      *zerolog.Logger
}

func NewSubscriptionReconciler(uc usecase.ReconcileUseCase, subs repository.SubscriptionRepository, pool *worker.Pool, interval time.Duration, batch int, logger *zerolog.Logger) *SubscriptionReconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if batch <= 0 {
		batch = 200
	}
	return &SubscriptionReconciler{uc: uc, subs: subs, pool: pool, interval: interval, batch: batch, log: logger}
}

func (w *SubscriptionReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *SubscriptionReconciler) tick(ctx context.Context) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusPastDue,
		model.SubscriptionStatusUnpaid,
		model.SubscriptionStatusActive,
	}
	if counts, err := w.subs.CountByStatus(ctx, repository.NoTX); err != nil {
		w.log.Warn().Err(err).Msg("reconciler: count subscriptions failed")
	} else {
		metrics.SetSubscriptionsTotal(counts)
	}

	rows, err := w.subs.ListByStatuses(ctx, repository.NoTX, statuses, w.batch)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciler: list subscriptions failed")
		return
	}
	for _, row := range rows {
		if row.ProviderSubscriptionID == nil {
			continue
		}
		providerID := *row.ProviderSubscriptionID
		err := w.pool.Submit(func(ctx context.Context) error {
			if err := w.uc.SyncFromProvider(ctx, providerID); err != nil {
				w.log.Warn().Err(err).Str("provider_subscription_id", providerID).Msg("reconciler: sync failed")
			}
			return nil
		})
		if err != nil {
			// queue saturated, the rest waits for the next tick
			w.log.Debug().Err(err).Msg("reconciler: submit skipped")
			return
		}
	}
}
