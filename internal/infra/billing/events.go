package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/ports/adapter"
)

// subscriptionPayload is the subset of a customer.subscription.* event body
// this system reads. Decoding into our own struct keeps the event surface
// closed: fields the engine never uses cannot leak past this package.
type subscriptionPayload struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
			Price              struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type invoicePayload struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Parent       struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (g *StripeGateway) VerifyAndParseEvent(payload []byte, signatureHeader string) (adapter.Event, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return adapter.Event{}, fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	kind := adapter.EventKind(event.Type)
	switch kind {
	case adapter.EventSubscriptionCreated, adapter.EventSubscriptionUpdated, adapter.EventSubscriptionDeleted:
		sub, err := parseSubscriptionPayload(event.Data.Raw)
		if err != nil {
			return adapter.Event{}, err
		}
		return adapter.Event{ID: event.ID, Kind: kind, Subscription: sub}, nil

	case adapter.EventInvoicePaid, adapter.EventInvoiceFailed:
		inv, err := parseInvoicePayload(event.Data.Raw)
		if err != nil {
			return adapter.Event{}, err
		}
		return adapter.Event{ID: event.ID, Kind: kind, Invoice: inv}, nil

	default:
		// authentic but untracked event kind
		return adapter.Event{ID: event.ID, Kind: adapter.EventIgnored}, nil
	}
}

func parseSubscriptionPayload(raw json.RawMessage) (*adapter.ProviderSubscription, error) {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, domain.Permanent(fmt.Errorf("%w: decode subscription payload: %v", domain.ErrMalformedEvent, err))
	}
	if p.ID == "" || p.Customer == "" {
		return nil, domain.Permanent(fmt.Errorf("%w: subscription payload missing id or customer", domain.ErrMalformedEvent))
	}
	out := &adapter.ProviderSubscription{
		ID:                p.ID,
		CustomerID:        p.Customer,
		Status:            p.Status,
		CancelAtPeriodEnd: p.CancelAtPeriodEnd,
	}
	if len(p.Items.Data) > 0 {
		item := p.Items.Data[0]
		out.PriceID = item.Price.ID
		if item.CurrentPeriodStart > 0 {
			out.CurrentPeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
		}
		if item.CurrentPeriodEnd > 0 {
			out.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
	}
	return out, nil
}

func parseInvoicePayload(raw json.RawMessage) (*adapter.InvoiceEvent, error) {
	var p invoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, domain.Permanent(fmt.Errorf("%w: decode invoice payload: %v", domain.ErrMalformedEvent, err))
	}
	if p.ID == "" {
		return nil, domain.Permanent(fmt.Errorf("%w: invoice payload missing id", domain.ErrMalformedEvent))
	}
	subID := p.Subscription
	if subID == "" {
		subID = p.Parent.SubscriptionDetails.Subscription
	}
	return &adapter.InvoiceEvent{
		InvoiceID:      p.ID,
		CustomerID:     p.Customer,
		SubscriptionID: subID,
	}, nil
}
