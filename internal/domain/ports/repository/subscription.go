package repository

import (
	"context"

	"saas-subscription-backend/internal/domain/model"
)

// SubscriptionRepository is the port for subscription rows.
//
// The ForUpdate variants issue SELECT ... FOR UPDATE and therefore require a
// non-nil Tx; they exist so every read-check-write on a row is serialized
// against concurrent writers.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByProviderID(ctx context.Context, tx Tx, providerSubID string) (*model.Subscription, error)
	FindByProviderIDForUpdate(ctx context.Context, tx Tx, providerSubID string) (*model.Subscription, error)
	FindActiveByUserAndPlan(ctx context.Context, tx Tx, userID, planID string) (*model.Subscription, error)
	FindActiveByUserAndPlanForUpdate(ctx context.Context, tx Tx, userID, planID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)

	// ListByStatuses feeds the background reconciler.
	ListByStatuses(ctx context.Context, tx Tx, statuses []model.SubscriptionStatus, limit int) ([]*model.Subscription, error)

	// CountByPlan guards plan price immutability.
	CountByPlan(ctx context.Context, tx Tx, planID string) (int, error)

	// CountByStatus feeds the subscriptions gauge.
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
