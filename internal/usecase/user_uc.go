package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/adapter"
	"saas-subscription-backend/internal/domain/ports/repository"
	"saas-subscription-backend/internal/infra/logging"
)

var _ UserUseCase = (*userUC)(nil)

// UserUseCase resolves verified identities to local user accounts.
type UserUseCase interface {
	// ResolveIdentity returns the local user for a verified identity,
	// creating the account on first sight and attaching the identity uid to
	// a pre-existing account matched by email.
	ResolveIdentity(ctx context.Context, id adapter.Identity) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, tm: tm, log: logger}
}

func (u *userUC) ResolveIdentity(ctx context.Context, id adapter.Identity) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.ResolveIdentity")()

	if id.SubjectID == "" || id.Email == "" {
		return nil, fmt.Errorf("%w: identity missing subject or email", domain.ErrInvalidCredential)
	}

	// Fast path: known identity, no transaction needed.
	if usr, err := u.users.FindByIdentityUID(ctx, repository.NoTX, id.SubjectID); err == nil {
		return usr, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var out *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Serialize first-login races on the same identity.
		if err := advisoryLock(ctx, tx, hashToInt64("identity:"+id.SubjectID)); err != nil {
			return err
		}

		if usr, err := u.users.FindByIdentityUID(ctx, tx, id.SubjectID); err == nil {
			out = usr
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		usr, err := u.users.FindByEmail(ctx, tx, id.Email)
		switch {
		case err == nil:
			// Pre-provisioned account: attach the identity uid.
			uid := id.SubjectID
			usr.IdentityUID = &uid
			if id.Name != "" && usr.FullName == "" {
				usr.FullName = id.Name
			}
			if err := u.users.Save(ctx, tx, usr); err != nil {
				return err
			}
			out = usr
			return nil
		case errors.Is(err, domain.ErrNotFound):
			usr, err := model.NewUser(newID(), id.Email, id.Name)
			if err != nil {
				return err
			}
			uid := id.SubjectID
			usr.IdentityUID = &uid
			if err := u.users.Save(ctx, tx, usr); err != nil {
				return err
			}
			u.log.Info().Str("user_id", usr.ID).Msg("user created on first login")
			out = usr
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *userUC) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, userID)
}
