package repository

import (
	"context"

	"saas-subscription-backend/internal/domain/model"
)

// PlanRepository is the port for plan persistence.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)

	// FindByProviderPriceID resolves the plan a provider event's price
	// reference belongs to.
	FindByProviderPriceID(ctx context.Context, tx Tx, priceID string) (*model.Plan, error)

	ListActive(ctx context.Context, tx Tx, offset, limit int) ([]*model.Plan, error)
	SetActive(ctx context.Context, tx Tx, id string, active bool) error
}
