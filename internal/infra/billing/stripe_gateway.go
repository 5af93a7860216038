package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"saas-subscription-backend/internal/config"
	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/ports/adapter"
	"saas-subscription-backend/internal/infra/metrics"
)

var _ adapter.BillingGateway = (*StripeGateway)(nil)

// StripeGateway implements the billing port against the Stripe API. It holds
// its own client.API instance; the SDK's package-level key is never set, so
// two gateways with different keys can coexist in one process.
type StripeGateway struct {
	sc            *client.API
	webhookSecret string
}

func NewStripeGateway(cfg *config.BillingConfig) (*StripeGateway, error) {
	if cfg.Stripe.APIKey == "" {
		return nil, fmt.Errorf("stripe api key is empty")
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Stripe.Timeout},
		MaxNetworkRetries: stripe.Int64(int64(cfg.Stripe.MaxRetries)),
	})
	sc := &client.API{}
	sc.Init(cfg.Stripe.APIKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
	return &StripeGateway{sc: sc, webhookSecret: cfg.Stripe.WebhookSecret}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) GetOrCreateCustomer(ctx context.Context, email, name string) (adapter.CustomerRef, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)
	it := g.sc.Customers.List(listParams)
	if it.Next() {
		metrics.IncGatewayCall("get_or_create_customer", true)
		return toCustomerRef(it.Customer()), nil
	}
	if err := it.Err(); err != nil {
		metrics.IncGatewayCall("get_or_create_customer", false)
		return adapter.CustomerRef{}, mapStripeErr("list customers", err)
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	if name != "" {
		params.Name = stripe.String(name)
	}
	c, err := g.sc.Customers.New(params)
	if err != nil {
		metrics.IncGatewayCall("get_or_create_customer", false)
		return adapter.CustomerRef{}, mapStripeErr("create customer", err)
	}
	metrics.IncGatewayCall("get_or_create_customer", true)
	return toCustomerRef(c), nil
}

func (g *StripeGateway) GetCustomer(ctx context.Context, customerID string) (adapter.CustomerRef, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	c, err := g.sc.Customers.Get(customerID, params)
	if err != nil {
		metrics.IncGatewayCall("get_customer", false)
		return adapter.CustomerRef{}, mapStripeErr("get customer", err)
	}
	metrics.IncGatewayCall("get_customer", true)
	return toCustomerRef(c), nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (adapter.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.Context = ctx
	sub, err := g.sc.Subscriptions.New(params)
	if err != nil {
		metrics.IncGatewayCall("create_subscription", false)
		return adapter.ProviderSubscription{}, mapStripeErr("create subscription", err)
	}
	metrics.IncGatewayCall("create_subscription", true)
	return toProviderSubscription(sub), nil
}

func (g *StripeGateway) GetSubscription(ctx context.Context, providerSubID string) (adapter.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.sc.Subscriptions.Get(providerSubID, params)
	if err != nil {
		metrics.IncGatewayCall("get_subscription", false)
		return adapter.ProviderSubscription{}, mapStripeErr("get subscription", err)
	}
	metrics.IncGatewayCall("get_subscription", true)
	return toProviderSubscription(sub), nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, providerSubID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := g.sc.Subscriptions.Cancel(providerSubID, params); err != nil {
		metrics.IncGatewayCall("cancel_subscription", false)
		return mapStripeErr("cancel subscription", err)
	}
	metrics.IncGatewayCall("cancel_subscription", true)
	return nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx
	sess, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		metrics.IncGatewayCall("create_checkout_session", false)
		return "", mapStripeErr("create checkout session", err)
	}
	metrics.IncGatewayCall("create_checkout_session", true)
	metrics.IncCheckoutSessions()
	return sess.URL, nil
}

func (g *StripeGateway) ListInvoices(ctx context.Context, customerID string, limit int) ([]adapter.Invoice, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	params.Limit = stripe.Int64(int64(limit))
	it := g.sc.Invoices.List(params)

	out := make([]adapter.Invoice, 0, limit)
	for it.Next() {
		out = append(out, toInvoice(it.Invoice()))
		if len(out) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		metrics.IncGatewayCall("list_invoices", false)
		return nil, mapStripeErr("list invoices", err)
	}
	metrics.IncGatewayCall("list_invoices", true)
	return out, nil
}

func toCustomerRef(c *stripe.Customer) adapter.CustomerRef {
	return adapter.CustomerRef{ID: c.ID, Email: c.Email, Name: c.Name}
}

func toProviderSubscription(sub *stripe.Subscription) adapter.ProviderSubscription {
	out := adapter.ProviderSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	// period bounds live on the subscription item
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
		if item.CurrentPeriodStart > 0 {
			out.CurrentPeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
		}
		if item.CurrentPeriodEnd > 0 {
			out.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
	}
	return out
}

func toInvoice(inv *stripe.Invoice) adapter.Invoice {
	out := adapter.Invoice{
		ID:         inv.ID,
		Number:     inv.Number,
		Status:     string(inv.Status),
		AmountDue:  inv.AmountDue,
		AmountPaid: inv.AmountPaid,
		Currency:   string(inv.Currency),
		HostedURL:  inv.HostedInvoiceURL,
		CreatedAt:  time.Unix(inv.Created, 0).UTC(),
	}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		out.SubscriptionID = inv.Parent.SubscriptionDetails.Subscription.ID
	}
	return out
}

func mapStripeErr(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrGatewayFailure, err)
}
