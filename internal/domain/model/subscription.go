package model

import (
	"fmt"
	"time"

	"saas-subscription-backend/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// ParseProviderStatus maps a billing provider status string to the local
// enum. "trialing" is folded into active: trial bookkeeping lives with the
// provider. Any other value is a permanent parse failure; redelivery will not
// fix a payload shape we do not understand.
func ParseProviderStatus(s string) (SubscriptionStatus, error) {
	switch s {
	case "active", "trialing":
		return SubscriptionStatusActive, nil
	case "past_due":
		return SubscriptionStatusPastDue, nil
	case "unpaid":
		return SubscriptionStatusUnpaid, nil
	case "canceled":
		return SubscriptionStatusCanceled, nil
	default:
		return "", domain.Permanent(fmt.Errorf("%w: unknown provider status %q", domain.ErrMalformedEvent, s))
	}
}

// Subscription is the durable record of one (user, plan) purchase lifecycle.
// CANCELED is terminal for a row; re-subscribing creates a new row, never
// resurrects an old one.
type Subscription struct {
	ID     string // ULID
	UserID string
	PlanID string
	Status SubscriptionStatus

	// ProviderSubscriptionID is nil only in the window between local
	// creation and provider confirmation.
	ProviderSubscriptionID *string

	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time

	// CancelAtPeriodEnd is advisory provider metadata; it never changes
	// Status by itself.
	CancelAtPeriodEnd bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSubscription creates an ACTIVE subscription row from a confirmed
// provider subscription.
func NewSubscription(id, userID, planID, providerSubID string, periodStart, periodEnd time.Time) (*Subscription, error) {
	if id == "" || userID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	s := &Subscription{
		ID:        id,
		UserID:    userID,
		PlanID:    planID,
		Status:    SubscriptionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if providerSubID != "" {
		s.ProviderSubscriptionID = &providerSubID
	}
	if !periodStart.IsZero() {
		s.CurrentPeriodStart = &periodStart
	}
	if !periodEnd.IsZero() {
		s.CurrentPeriodEnd = &periodEnd
	}
	return s, nil
}

func (s *Subscription) IsActive() bool { return s.Status == SubscriptionStatusActive }

// MarkCanceled transitions the row to its terminal state. Safe to call on an
// already-canceled row.
func (s *Subscription) MarkCanceled() {
	s.Status = SubscriptionStatusCanceled
	s.CancelAtPeriodEnd = true
	s.UpdatedAt = time.Now()
}
