package adapter

import (
	"context"
	"time"
)

// CustomerRef identifies a customer record held by the billing provider.
type CustomerRef struct {
	ID    string
	Email string
	Name  string
}

// ProviderSubscription is the provider's view of a subscription. Status is
// the raw provider string; mapping to the local enum happens in the
// reconciliation engine so parse failures are classified there.
type ProviderSubscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	CancelAtPeriodEnd  bool
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// Invoice is a read-only projection of a provider invoice.
type Invoice struct {
	ID             string    `json:"id"`
	Number         string    `json:"number"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	Status         string    `json:"status"`
	AmountDue      int64     `json:"amount_due"`
	AmountPaid     int64     `json:"amount_paid"`
	Currency       string    `json:"currency"`
	HostedURL      string    `json:"hosted_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type EventKind string

const (
	EventSubscriptionCreated EventKind = "customer.subscription.created"
	EventSubscriptionUpdated EventKind = "customer.subscription.updated"
	EventSubscriptionDeleted EventKind = "customer.subscription.deleted"
	EventInvoicePaid         EventKind = "invoice.payment_succeeded"
	EventInvoiceFailed       EventKind = "invoice.payment_failed"

	// EventIgnored is returned for authentic events of kinds this system
	// does not track. They are acknowledged without any state change.
	EventIgnored EventKind = ""
)

// InvoiceEvent carries the fields of an invoice.* event the engine needs.
type InvoiceEvent struct {
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
}

// Event is the closed, typed form of an inbound provider event. Exactly one
// of Subscription / Invoice is non-nil depending on Kind; the engine never
// sees untyped payload maps.
type Event struct {
	ID           string
	Kind         EventKind
	Subscription *ProviderSubscription
	Invoice      *InvoiceEvent
}

// BillingGateway is the outbound port to the billing provider. Every call
// maps 1:1 to one provider operation, honors ctx deadlines, and holds no
// state of its own.
type BillingGateway interface {
	Name() string

	// GetOrCreateCustomer is idempotent by email lookup (search before
	// create). Two concurrent calls for the same unseen email can still
	// create two provider customers; accepted, not silently fixed.
	GetOrCreateCustomer(ctx context.Context, email, name string) (CustomerRef, error)
	GetCustomer(ctx context.Context, customerID string) (CustomerRef, error)

	CreateSubscription(ctx context.Context, customerID, priceID string) (ProviderSubscription, error)
	GetSubscription(ctx context.Context, providerSubID string) (ProviderSubscription, error)
	CancelSubscription(ctx context.Context, providerSubID string) error

	// CreateCheckoutSession returns the provider-hosted checkout URL. No
	// local state changes until a later webhook confirms the purchase.
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)

	ListInvoices(ctx context.Context, customerID string, limit int) ([]Invoice, error)

	// VerifyAndParseEvent checks the payload signature against the shared
	// webhook secret and decodes it into a typed Event. This is the sole
	// authenticity boundary for inbound events: nothing may parse the body
	// before it. Fails with domain.ErrSignatureInvalid or
	// domain.ErrMalformedEvent.
	VerifyAndParseEvent(payload []byte, signatureHeader string) (Event, error)
}
