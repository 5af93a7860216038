//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/adapter"
	"saas-subscription-backend/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn directly with a nil Tx by default; assign WithTxFunc to
// override.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	store map[string]*model.User // by ID

	SaveFunc              func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByEmailFunc       func(ctx context.Context, tx repository.Tx, email string) (*model.User, error)
	FindByIdentityUIDFunc func(ctx context.Context, tx repository.Tx, uid string) (*model.User, error)
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*model.User)}
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, tx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) FindByIdentityUID(ctx context.Context, tx repository.Tx, uid string) (*model.User, error) {
	if m.FindByIdentityUIDFunc != nil {
		return m.FindByIdentityUIDFunc(ctx, tx, uid)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.IdentityUID != nil && *u.IdentityUID == uid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) SetBillingCustomerID(_ context.Context, _ repository.Tx, userID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.BillingCustomerID = &customerID
	return nil
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.Plan
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: make(map[string]*model.Plan)}
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func (m *MockPlanRepo) Save(_ context.Context, _ repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) FindByProviderPriceID(_ context.Context, _ repository.Tx, priceID string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.ProviderPriceID != nil && *p.ProviderPriceID == priceID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) ListActive(_ context.Context, _ repository.Tx, offset, limit int) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.store {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPlanRepo) SetActive(_ context.Context, _ repository.Tx, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = active
	return nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription

	SaveFunc        func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	CountByPlanFunc func(ctx context.Context, tx repository.Tx, planID string) (int, error)
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// enforce one ACTIVE row per (user, plan) like the partial unique index
	if s.Status == model.SubscriptionStatusActive {
		for _, other := range m.store {
			if other.ID != s.ID && other.UserID == s.UserID && other.PlanID == s.PlanID && other.Status == model.SubscriptionStatusActive {
				return domain.ErrAlreadySubscribed
			}
		}
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *MockSubscriptionRepo) FindByProviderID(_ context.Context, _ repository.Tx, providerSubID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.ProviderSubscriptionID != nil && *s.ProviderSubscriptionID == providerSubID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindByProviderIDForUpdate(ctx context.Context, tx repository.Tx, providerSubID string) (*model.Subscription, error) {
	return m.FindByProviderID(ctx, tx, providerSubID)
}

func (m *MockSubscriptionRepo) FindActiveByUserAndPlan(_ context.Context, _ repository.Tx, userID, planID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.UserID == userID && s.PlanID == planID && s.Status == model.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindActiveByUserAndPlanForUpdate(ctx context.Context, tx repository.Tx, userID, planID string) (*model.Subscription, error) {
	return m.FindActiveByUserAndPlan(ctx, tx, userID, planID)
}

func (m *MockSubscriptionRepo) ListByUser(_ context.Context, _ repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) ListByStatuses(_ context.Context, _ repository.Tx, statuses []model.SubscriptionStatus, limit int) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[model.SubscriptionStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	var out []*model.Subscription
	for _, s := range m.store {
		if want[s.Status] && s.ProviderSubscriptionID != nil {
			cp := *s
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) CountByStatus(_ context.Context, _ repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.SubscriptionStatus]int)
	for _, s := range m.store {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *MockSubscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx, planID string) (int, error) {
	if m.CountByPlanFunc != nil {
		return m.CountByPlanFunc(ctx, tx, planID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.store {
		if s.PlanID == planID {
			n++
		}
	}
	return n, nil
}

// ---- Mock ProjectRepository ----

type MockProjectRepo struct {
	mu    sync.Mutex
	store map[string]*model.Project
}

func NewMockProjectRepo() *MockProjectRepo {
	return &MockProjectRepo{store: make(map[string]*model.Project)}
}

var _ repository.ProjectRepository = (*MockProjectRepo)(nil)

func (m *MockProjectRepo) Save(_ context.Context, _ repository.Tx, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockProjectRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProjectRepo) ListByMember(_ context.Context, _ repository.Tx, userID string, offset, limit int) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Project
	for _, p := range m.store {
		if p.HasMember(userID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockProjectRepo) Delete(_ context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockProjectRepo) AddMember(_ context.Context, _ repository.Tx, projectID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, id := range p.MemberIDs {
		if id == userID {
			return nil
		}
	}
	p.MemberIDs = append(p.MemberIDs, userID)
	return nil
}

func (m *MockProjectRepo) RemoveMember(_ context.Context, _ repository.Tx, projectID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	for i, id := range p.MemberIDs {
		if id == userID {
			p.MemberIDs = append(p.MemberIDs[:i], p.MemberIDs[i+1:]...)
			return nil
		}
	}
	return nil
}

// ---- Mock BillingGateway ----

type MockBillingGateway struct {
	mu        sync.Mutex
	customers map[string]adapter.CustomerRef // by ID
	nextSubID int
	Canceled  []string // provider sub ids passed to CancelSubscription

	GetOrCreateCustomerFunc func(ctx context.Context, email, name string) (adapter.CustomerRef, error)
	GetCustomerFunc         func(ctx context.Context, customerID string) (adapter.CustomerRef, error)
	CreateSubscriptionFunc  func(ctx context.Context, customerID, priceID string) (adapter.ProviderSubscription, error)
	GetSubscriptionFunc     func(ctx context.Context, providerSubID string) (adapter.ProviderSubscription, error)
	CancelSubscriptionFunc  func(ctx context.Context, providerSubID string) error
	CheckoutFunc            func(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
	ListInvoicesFunc        func(ctx context.Context, customerID string, limit int) ([]adapter.Invoice, error)
}

func NewMockBillingGateway() *MockBillingGateway {
	return &MockBillingGateway{customers: make(map[string]adapter.CustomerRef)}
}

var _ adapter.BillingGateway = (*MockBillingGateway)(nil)

func (m *MockBillingGateway) Name() string { return "mock" }

func (m *MockBillingGateway) AddCustomer(ref adapter.CustomerRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[ref.ID] = ref
}

func (m *MockBillingGateway) GetOrCreateCustomer(ctx context.Context, email, name string) (adapter.CustomerRef, error) {
	if m.GetOrCreateCustomerFunc != nil {
		return m.GetOrCreateCustomerFunc(ctx, email, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Email == email {
			return c, nil
		}
	}
	ref := adapter.CustomerRef{ID: "cus_" + email, Email: email, Name: name}
	m.customers[ref.ID] = ref
	return ref, nil
}

func (m *MockBillingGateway) GetCustomer(ctx context.Context, customerID string) (adapter.CustomerRef, error) {
	if m.GetCustomerFunc != nil {
		return m.GetCustomerFunc(ctx, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[customerID]
	if !ok {
		return adapter.CustomerRef{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *MockBillingGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (adapter.ProviderSubscription, error) {
	if m.CreateSubscriptionFunc != nil {
		return m.CreateSubscriptionFunc(ctx, customerID, priceID)
	}
	m.mu.Lock()
	m.nextSubID++
	id := fmt.Sprintf("psub_%d", m.nextSubID)
	m.mu.Unlock()
	now := time.Now()
	return adapter.ProviderSubscription{
		ID:                 id,
		CustomerID:         customerID,
		PriceID:            priceID,
		Status:             "active",
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}, nil
}

func (m *MockBillingGateway) GetSubscription(ctx context.Context, providerSubID string) (adapter.ProviderSubscription, error) {
	if m.GetSubscriptionFunc != nil {
		return m.GetSubscriptionFunc(ctx, providerSubID)
	}
	return adapter.ProviderSubscription{}, domain.ErrNotFound
}

func (m *MockBillingGateway) CancelSubscription(ctx context.Context, providerSubID string) error {
	if m.CancelSubscriptionFunc != nil {
		return m.CancelSubscriptionFunc(ctx, providerSubID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Canceled = append(m.Canceled, providerSubID)
	return nil
}

func (m *MockBillingGateway) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ctx, customerID, priceID, successURL, cancelURL)
	}
	return "https://checkout.example.com/session/" + priceID, nil
}

func (m *MockBillingGateway) ListInvoices(ctx context.Context, customerID string, limit int) ([]adapter.Invoice, error) {
	if m.ListInvoicesFunc != nil {
		return m.ListInvoicesFunc(ctx, customerID, limit)
	}
	return nil, nil
}

func (m *MockBillingGateway) VerifyAndParseEvent(payload []byte, signatureHeader string) (adapter.Event, error) {
	return adapter.Event{}, domain.ErrSignatureInvalid
}
