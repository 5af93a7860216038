package model

import (
	"strings"
	"time"

	"saas-subscription-backend/internal/domain"
)

// User is a local account record. Authentication is delegated to an external
// identity provider; the row is created the first time a verified identity
// is seen and keyed by email thereafter.
type User struct {
	ID       string // ULID
	Email    string
	FullName string
	Active   bool
	Admin    bool

	// IdentityUID is the external identity provider's subject id, set when
	// the user first authenticates through it.
	IdentityUID *string

	// BillingCustomerID caches the billing provider's customer reference
	// after the first gateway resolution. Nil until the user first touches
	// a paid flow.
	BillingCustomerID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser validates and constructs a user record.
func NewUser(id, email, fullName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if id == "" || email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		FullName:  fullName,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
