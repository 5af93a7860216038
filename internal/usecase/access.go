package usecase

import (
	"fmt"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
)

// RequireAdmin denies all non-admin callers.
func RequireAdmin(caller *model.User) error {
	if caller == nil || !caller.Admin {
		return fmt.Errorf("%w: admin privileges required", domain.ErrForbidden)
	}
	return nil
}

// RequireOwnerOrAdmin grants access to the owning user and to admins. The
// outcome depends only on the caller and the owner ID, never on external
// state.
func RequireOwnerOrAdmin(caller *model.User, ownerID string) error {
	if caller == nil {
		return fmt.Errorf("%w: unauthenticated", domain.ErrForbidden)
	}
	if caller.Admin || caller.ID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: not the owner", domain.ErrForbidden)
}
