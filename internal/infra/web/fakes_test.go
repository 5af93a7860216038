//go:build !integration

package web

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/adapter"
	"saas-subscription-backend/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// fakeGateway satisfies the billing port for handler tests; only event
// verification is exercised here.
type fakeGateway struct {
	verifyFunc func(payload []byte, signatureHeader string) (adapter.Event, error)
}

func newFakeGateway() *fakeGateway { return &fakeGateway{} }

var _ adapter.BillingGateway = (*fakeGateway)(nil)

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) GetOrCreateCustomer(context.Context, string, string) (adapter.CustomerRef, error) {
	return adapter.CustomerRef{}, domain.ErrNotFound
}

func (f *fakeGateway) GetCustomer(context.Context, string) (adapter.CustomerRef, error) {
	return adapter.CustomerRef{}, domain.ErrNotFound
}

func (f *fakeGateway) CreateSubscription(context.Context, string, string) (adapter.ProviderSubscription, error) {
	return adapter.ProviderSubscription{}, domain.ErrGatewayFailure
}

func (f *fakeGateway) GetSubscription(context.Context, string) (adapter.ProviderSubscription, error) {
	return adapter.ProviderSubscription{}, domain.ErrNotFound
}

func (f *fakeGateway) CancelSubscription(context.Context, string) error { return nil }

func (f *fakeGateway) CreateCheckoutSession(context.Context, string, string, string, string) (string, error) {
	return "", domain.ErrGatewayFailure
}

func (f *fakeGateway) ListInvoices(context.Context, string, int) ([]adapter.Invoice, error) {
	return nil, nil
}

func (f *fakeGateway) VerifyAndParseEvent(payload []byte, signatureHeader string) (adapter.Event, error) {
	if f.verifyFunc != nil {
		return f.verifyFunc(payload, signatureHeader)
	}
	return adapter.Event{}, domain.ErrSignatureInvalid
}

type fakeReconcileUC struct {
	handleFunc func(ctx context.Context, ev adapter.Event) error
	syncFunc   func(ctx context.Context, providerSubID string) error
}

func newFakeReconcileUC() *fakeReconcileUC { return &fakeReconcileUC{} }

var _ usecase.ReconcileUseCase = (*fakeReconcileUC)(nil)

func (f *fakeReconcileUC) HandleProviderEvent(ctx context.Context, ev adapter.Event) error {
	if f.handleFunc != nil {
		return f.handleFunc(ctx, ev)
	}
	return nil
}

func (f *fakeReconcileUC) SyncFromProvider(ctx context.Context, providerSubID string) error {
	if f.syncFunc != nil {
		return f.syncFunc(ctx, providerSubID)
	}
	return nil
}

type fakeVerifier struct {
	verifyFunc func(ctx context.Context, bearerToken string) (adapter.Identity, error)
}

var _ adapter.IdentityVerifier = (*fakeVerifier)(nil)

func (f *fakeVerifier) Verify(ctx context.Context, bearerToken string) (adapter.Identity, error) {
	if f.verifyFunc != nil {
		return f.verifyFunc(ctx, bearerToken)
	}
	return adapter.Identity{}, domain.ErrInvalidCredential
}

type fakeUserUC struct {
	resolveFunc func(ctx context.Context, id adapter.Identity) (*model.User, error)
	getFunc     func(ctx context.Context, userID string) (*model.User, error)
}

var _ usecase.UserUseCase = (*fakeUserUC)(nil)

func (f *fakeUserUC) ResolveIdentity(ctx context.Context, id adapter.Identity) (*model.User, error) {
	if f.resolveFunc != nil {
		return f.resolveFunc(ctx, id)
	}
	return nil, domain.ErrInvalidCredential
}

func (f *fakeUserUC) GetByID(ctx context.Context, userID string) (*model.User, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, userID)
	}
	return nil, domain.ErrNotFound
}
