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

var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase drives the purchase lifecycle: direct subscribe,
// hosted checkout, cancellation and read access. All mutations funnel
// through row-locked transactions so provider webhooks and API calls
// touching the same subscription serialize.
type SubscriptionUseCase interface {
	// Subscribe synchronously creates a provider subscription and persists
	// the local row. One ACTIVE row per (user, plan).
	Subscribe(ctx context.Context, userID, planID string) (*model.Subscription, error)

	// Checkout returns a provider-hosted payment URL. No local state changes
	// until the provider's webhook confirms the purchase.
	Checkout(ctx context.Context, userID, planID, successURL, cancelURL string) (string, error)

	// Cancel tells the provider first, then marks the local row CANCELED.
	// If the provider call fails the row is left untouched for retry.
	Cancel(ctx context.Context, caller *model.User, subscriptionID string) (*model.Subscription, error)

	ListForUser(ctx context.Context, caller *model.User, userID string) ([]*model.Subscription, error)
	Invoices(ctx context.Context, caller *model.User, userID string, limit int) ([]adapter.Invoice, error)
}

type subscriptionUC struct {
	users   repository.UserRepository
	plans   repository.PlanRepository
	subs    repository.SubscriptionRepository
	gateway adapter.BillingGateway
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewSubscriptionUseCase(
	users repository.UserRepository,
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	gateway adapter.BillingGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{users: users, plans: plans, subs: subs, gateway: gateway, tm: tm, log: logger}
}

// loadSubscribablePlan rejects inactive plans and plans without a provider
// price reference.
func (u *subscriptionUC) loadSubscribablePlan(ctx context.Context, planID string) (*model.Plan, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: plan %s", domain.ErrPlanNotFound, planID)
	}
	if !plan.Active {
		return nil, fmt.Errorf("%w: plan %s is inactive", domain.ErrPlanNotFound, planID)
	}
	if plan.ProviderPriceID == nil || *plan.ProviderPriceID == "" {
		return nil, fmt.Errorf("%w: plan %s has no provider price", domain.ErrPlanMisconfigured, planID)
	}
	return plan, nil
}

// ensureBillingCustomer resolves (and caches) the provider customer for a
// user. The gateway lookup is by email, so a lost cache only costs one
// extra provider call, never a duplicate customer.
func (u *subscriptionUC) ensureBillingCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.BillingCustomerID != nil && *user.BillingCustomerID != "" {
		return *user.BillingCustomerID, nil
	}
	ref, err := u.gateway.GetOrCreateCustomer(ctx, user.Email, user.FullName)
	if err != nil {
		return "", err
	}
	if err := u.users.SetBillingCustomerID(ctx, repository.NoTX, user.ID, ref.ID); err != nil {
		return "", err
	}
	user.BillingCustomerID = &ref.ID
	return ref.ID, nil
}

func (u *subscriptionUC) Subscribe(ctx context.Context, userID, planID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Subscribe")()
	log := logging.With(ctx, u.log)

	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	plan, err := u.loadSubscribablePlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	// Fast fail before any provider call.
	if existing, err := u.subs.FindActiveByUserAndPlan(ctx, repository.NoTX, userID, planID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: subscription %s", domain.ErrAlreadySubscribed, existing.ID)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	customerID, err := u.ensureBillingCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	provSub, err := u.gateway.CreateSubscription(ctx, customerID, *plan.ProviderPriceID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider_subscription_id", provSub.ID).Str("plan_id", planID).Msg("provider subscription created")

	status, err := model.ParseProviderStatus(provSub.Status)
	if err != nil {
		return nil, err
	}

	var out *model.Subscription
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// The confirmation webhook may land before we get here; serialize
		// on the provider subscription id and adopt its row if present.
		if err := advisoryLock(ctx, tx, hashToInt64("sub:"+provSub.ID)); err != nil {
			return err
		}
		if row, err := u.subs.FindByProviderIDForUpdate(ctx, tx, provSub.ID); err == nil {
			out = row
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		sub, err := model.NewSubscription(newID(), userID, planID, provSub.ID, provSub.CurrentPeriodStart, provSub.CurrentPeriodEnd)
		if err != nil {
			return err
		}
		sub.Status = status
		sub.CancelAtPeriodEnd = provSub.CancelAtPeriodEnd
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		metrics.IncSubscriptionTransition(sub.Status, "api")
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *subscriptionUC) Checkout(ctx context.Context, userID, planID, successURL, cancelURL string) (string, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Checkout")()

	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return "", err
	}
	plan, err := u.loadSubscribablePlan(ctx, planID)
	if err != nil {
		return "", err
	}
	if existing, err := u.subs.FindActiveByUserAndPlan(ctx, repository.NoTX, userID, planID); err == nil && existing != nil {
		return "", fmt.Errorf("%w: subscription %s", domain.ErrAlreadySubscribed, existing.ID)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	customerID, err := u.ensureBillingCustomer(ctx, user)
	if err != nil {
		return "", err
	}
	return u.gateway.CreateCheckoutSession(ctx, customerID, *plan.ProviderPriceID, successURL, cancelURL)
}

func (u *subscriptionUC) Cancel(ctx context.Context, caller *model.User, subscriptionID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Cancel")()
	log := logging.With(ctx, u.log)

	sub, err := u.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return nil, err
	}
	if err := RequireOwnerOrAdmin(caller, sub.UserID); err != nil {
		return nil, err
	}
	if !sub.IsActive() {
		return nil, fmt.Errorf("%w: subscription %s is %s", domain.ErrNotActive, sub.ID, sub.Status)
	}

	// Provider first. A local-only cancel would be resurrected by the next
	// provider event; a provider-only cancel is healed by its webhook.
	if sub.ProviderSubscriptionID != nil {
		if err := u.gateway.CancelSubscription(ctx, *sub.ProviderSubscriptionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	var out *model.Subscription
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		row, err := u.subs.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if row.Status != model.SubscriptionStatusCanceled {
			row.MarkCanceled()
			if err := u.subs.Save(ctx, tx, row); err != nil {
				return err
			}
			metrics.IncSubscriptionTransition(model.SubscriptionStatusCanceled, "api")
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("subscription_id", subscriptionID).Msg("subscription canceled")
	return out, nil
}

func (u *subscriptionUC) ListForUser(ctx context.Context, caller *model.User, userID string) ([]*model.Subscription, error) {
	if err := RequireOwnerOrAdmin(caller, userID); err != nil {
		return nil, err
	}
	return u.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (u *subscriptionUC) Invoices(ctx context.Context, caller *model.User, userID string, limit int) ([]adapter.Invoice, error) {
	if err := RequireOwnerOrAdmin(caller, userID); err != nil {
		return nil, err
	}
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	// A user who never touched a paid flow has no provider customer and
	// therefore no invoices.
	if user.BillingCustomerID == nil || *user.BillingCustomerID == "" {
		return []adapter.Invoice{}, nil
	}
	return u.gateway.ListInvoices(ctx, *user.BillingCustomerID, limit)
}
