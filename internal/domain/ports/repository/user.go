package repository

import (
	"context"

	"saas-subscription-backend/internal/domain/model"
)

// UserRepository is the port for local user accounts.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	FindByIdentityUID(ctx context.Context, tx Tx, uid string) (*model.User, error)

	// SetBillingCustomerID records the provider customer reference the first
	// time the gateway resolves one for this user.
	SetBillingCustomerID(ctx context.Context, tx Tx, userID, customerID string) error
}
