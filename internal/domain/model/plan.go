package model

import (
	"time"

	"saas-subscription-backend/internal/domain"
)

type BillingInterval string

const (
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
)

// Plan is a purchasable subscription plan mapped to exactly one provider
// price. Price and interval are immutable once any subscription references
// the plan; only Active and Description may change after that. Plans are
// soft-deactivated, never deleted, so historical subscriptions stay valid.
type Plan struct {
	ID          string // ULID
	Name        string
	Description string
	PriceCents  int64 // minor currency units
	Interval    BillingInterval

	// ProviderPriceID is the billing provider's price reference. Nil until
	// the plan has been provisioned with the provider; subscribing to a plan
	// without one fails with ErrPlanMisconfigured.
	ProviderPriceID *string

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name, description string, priceCents int64, interval BillingInterval, providerPriceID string) (*Plan, error) {
	if id == "" || name == "" || priceCents < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if interval != IntervalMonth && interval != IntervalYear {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	p := &Plan{
		ID:          id,
		Name:        name,
		Description: description,
		PriceCents:  priceCents,
		Interval:    interval,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if providerPriceID != "" {
		p.ProviderPriceID = &providerPriceID
	}
	return p, nil
}
