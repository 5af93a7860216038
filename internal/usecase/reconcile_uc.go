package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/adapter"
	"saas-subscription-backend/internal/domain/ports/repository"
	"saas-subscription-backend/internal/infra/logging"
	"saas-subscription-backend/internal/infra/metrics"
)

var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase applies provider events to local subscription rows and
// periodically re-syncs non-terminal rows from the provider. Every handler
// is idempotent: replaying one event any number of times lands on the same
// final state.
//
// Error permanence matters here. Permanent errors (bad payload shape,
// unknown status, user definitively absent) are returned wrapped so callers
// acknowledge the event and stop redelivery; everything else is transient
// and returned bare so delivery is retried.
type ReconcileUseCase interface {
	HandleProviderEvent(ctx context.Context, ev adapter.Event) error

	// SyncFromProvider pulls current provider state for one local row and
	// applies it like an update event. Used by the background reconciler to
	// close the subscribe path's external-call-then-write gap.
	SyncFromProvider(ctx context.Context, providerSubID string) error
}

type reconcileUC struct {
	users   repository.UserRepository
	plans   repository.PlanRepository
	subs    repository.SubscriptionRepository
	gateway adapter.BillingGateway
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewReconcileUseCase(
	users repository.UserRepository,
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	gateway adapter.BillingGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{users: users, plans: plans, subs: subs, gateway: gateway, tm: tm, log: logger}
}

func (u *reconcileUC) HandleProviderEvent(ctx context.Context, ev adapter.Event) error {
	defer logging.TraceDuration(u.log, "ReconcileUC.HandleProviderEvent")()
	log := logging.With(ctx, u.log)

	switch ev.Kind {
	case adapter.EventIgnored:
		log.Debug().Str("event_id", ev.ID).Msg("untracked event kind acknowledged")
		return nil
	case adapter.EventSubscriptionCreated:
		return u.handleCreated(ctx, ev.Subscription)
	case adapter.EventSubscriptionUpdated:
		return u.handleUpdated(ctx, ev.Subscription)
	case adapter.EventSubscriptionDeleted:
		return u.handleDeleted(ctx, ev.Subscription)
	case adapter.EventInvoicePaid:
		return u.handleInvoice(ctx, ev.Invoice, model.SubscriptionStatusActive)
	case adapter.EventInvoiceFailed:
		return u.handleInvoice(ctx, ev.Invoice, model.SubscriptionStatusPastDue)
	default:
		return domain.Permanent(fmt.Errorf("%w: unhandled event kind %q", domain.ErrMalformedEvent, ev.Kind))
	}
}

// handleCreated establishes the local row for a provider subscription,
// resolving the owner through the provider customer's billing email. This is
// also the reconciliation path for subscriptions created out of band.
func (u *reconcileUC) handleCreated(ctx context.Context, ps *adapter.ProviderSubscription) error {
	log := logging.With(ctx, u.log)

	status, err := model.ParseProviderStatus(ps.Status)
	if err != nil {
		return err
	}

	// Unknown price means the event references something not in the
	// catalog; redelivery cannot fix that.
	plan, err := u.plans.FindByProviderPriceID(ctx, repository.NoTX, ps.PriceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Permanent(fmt.Errorf("%w: no plan for provider price %q", domain.ErrPlanNotFound, ps.PriceID))
		}
		return err
	}

	user, err := u.resolveUserByCustomer(ctx, ps.CustomerID)
	if err != nil {
		return err
	}

	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := advisoryLock(ctx, tx, hashToInt64("sub:"+ps.ID)); err != nil {
			return err
		}

		// Replay or lost race with the synchronous subscribe path: the row
		// exists, overwrite provider-authoritative fields and stop.
		if row, err := u.subs.FindByProviderIDForUpdate(ctx, tx, ps.ID); err == nil {
			return u.applyProviderState(ctx, tx, row, ps, status)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		// A different ACTIVE subscription on the same plan loses to the
		// newer one: cancel it at the provider, then locally.
		if older, err := u.subs.FindActiveByUserAndPlanForUpdate(ctx, tx, user.ID, plan.ID); err == nil {
			if older.ProviderSubscriptionID != nil && *older.ProviderSubscriptionID != ps.ID {
				if err := u.gateway.CancelSubscription(ctx, *older.ProviderSubscriptionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
					return err
				}
				older.MarkCanceled()
				if err := u.subs.Save(ctx, tx, older); err != nil {
					return err
				}
				metrics.IncSubscriptionTransition(model.SubscriptionStatusCanceled, "webhook")
				log.Warn().
					Str("superseded_subscription_id", older.ID).
					Str("provider_subscription_id", ps.ID).
					Msg("older active subscription canceled in favor of newer provider subscription")
			}
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		sub, err := model.NewSubscription(newID(), user.ID, plan.ID, ps.ID, ps.CurrentPeriodStart, ps.CurrentPeriodEnd)
		if err != nil {
			return err
		}
		sub.Status = status
		sub.CancelAtPeriodEnd = ps.CancelAtPeriodEnd
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		metrics.IncSubscriptionTransition(status, "webhook")
		log.Info().Str("subscription_id", sub.ID).Str("provider_subscription_id", ps.ID).Msg("subscription created from provider event")
		return nil
	})
}

// handleUpdated overwrites provider-authoritative fields on an existing row.
// It never creates rows: an absent row is a no-op, established later by a
// created event or a reconciler pass.
func (u *reconcileUC) handleUpdated(ctx context.Context, ps *adapter.ProviderSubscription) error {
	status, err := model.ParseProviderStatus(ps.Status)
	if err != nil {
		return err
	}
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		row, err := u.subs.FindByProviderIDForUpdate(ctx, tx, ps.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logging.With(ctx, u.log).Debug().Str("provider_subscription_id", ps.ID).Msg("update for unknown subscription ignored")
				return nil
			}
			return err
		}
		return u.applyProviderState(ctx, tx, row, ps, status)
	})
}

func (u *reconcileUC) handleDeleted(ctx context.Context, ps *adapter.ProviderSubscription) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		row, err := u.subs.FindByProviderIDForUpdate(ctx, tx, ps.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		if row.Status == model.SubscriptionStatusCanceled {
			return nil
		}
		row.MarkCanceled()
		if err := u.subs.Save(ctx, tx, row); err != nil {
			return err
		}
		metrics.IncSubscriptionTransition(model.SubscriptionStatusCanceled, "webhook")
		return nil
	})
}

func (u *reconcileUC) handleInvoice(ctx context.Context, inv *adapter.InvoiceEvent, target model.SubscriptionStatus) error {
	// Invoices not tied to a subscription carry nothing to reconcile.
	if inv.SubscriptionID == "" {
		return nil
	}
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		row, err := u.subs.FindByProviderIDForUpdate(ctx, tx, inv.SubscriptionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		// CANCELED is terminal; a late invoice event must not resurrect it.
		if row.Status == model.SubscriptionStatusCanceled || row.Status == target {
			return nil
		}
		row.Status = target
		row.UpdatedAt = nowFn()
		if err := u.subs.Save(ctx, tx, row); err != nil {
			return err
		}
		metrics.IncSubscriptionTransition(target, "webhook")
		return nil
	})
}

func (u *reconcileUC) SyncFromProvider(ctx context.Context, providerSubID string) error {
	ps, err := u.gateway.GetSubscription(ctx, providerSubID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Gone at the provider: treat like a deleted event.
			metrics.IncReconcilerSync("deleted")
			return u.handleDeleted(ctx, &adapter.ProviderSubscription{ID: providerSubID})
		}
		metrics.IncReconcilerSync("error")
		return err
	}
	if err := u.handleUpdated(ctx, &ps); err != nil {
		metrics.IncReconcilerSync("error")
		return err
	}
	metrics.IncReconcilerSync("ok")
	return nil
}

// applyProviderState overwrites the provider-authoritative fields. The
// provider wins unconditionally for status, period bounds and the
// cancel-at-period-end flag, except that CANCELED stays terminal.
func (u *reconcileUC) applyProviderState(ctx context.Context, tx repository.Tx, row *model.Subscription, ps *adapter.ProviderSubscription, status model.SubscriptionStatus) error {
	if row.Status == model.SubscriptionStatusCanceled && status != model.SubscriptionStatusCanceled {
		return nil
	}
	changed := row.Status != status
	row.Status = status
	if !ps.CurrentPeriodStart.IsZero() {
		start := ps.CurrentPeriodStart
		row.CurrentPeriodStart = &start
	}
	if !ps.CurrentPeriodEnd.IsZero() {
		end := ps.CurrentPeriodEnd
		row.CurrentPeriodEnd = &end
	}
	row.CancelAtPeriodEnd = ps.CancelAtPeriodEnd
	row.UpdatedAt = nowFn()
	if err := u.subs.Save(ctx, tx, row); err != nil {
		return err
	}
	if changed {
		metrics.IncSubscriptionTransition(status, "webhook")
	}
	return nil
}

// resolveUserByCustomer maps a provider customer to a local user through the
// billing email. A gateway or database failure is transient; a user that is
// definitively absent is permanent, redelivery will not conjure the account.
func (u *reconcileUC) resolveUserByCustomer(ctx context.Context, customerID string) (*model.User, error) {
	ref, err := u.gateway.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Permanent(fmt.Errorf("%w: provider customer %q does not exist", domain.ErrUnresolvableUser, customerID))
		}
		return nil, err
	}
	if ref.Email == "" {
		return nil, domain.Permanent(fmt.Errorf("%w: provider customer %q has no email", domain.ErrUnresolvableUser, customerID))
	}
	user, err := u.users.FindByEmail(ctx, repository.NoTX, ref.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Permanent(fmt.Errorf("%w: no account for billing email of customer %q", domain.ErrUnresolvableUser, customerID))
		}
		return nil, err
	}
	return user, nil
}
