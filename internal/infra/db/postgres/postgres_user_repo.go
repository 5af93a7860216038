package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/repository"
)

// Ensure userRepo implements repository.UserRepository
var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, email, full_name, active, admin, identity_uid, billing_customer_id, created_at, updated_at`

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, email, full_name, active, admin, identity_uid, billing_customer_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  email=$2, full_name=$3, active=$4, admin=$5, identity_uid=$6, billing_customer_id=$7, updated_at=$9;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, u.ID, u.Email, u.FullName, u.Active, u.Admin, u.IdentityUID, u.BillingCustomerID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1);`
	return r.queryOne(ctx, tx, q, email)
}

func (r *userRepo) FindByIdentityUID(ctx context.Context, tx repository.Tx, uid string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE identity_uid=$1;`
	return r.queryOne(ctx, tx, q, uid)
}

func (r *userRepo) SetBillingCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) error {
	const q = `UPDATE users SET billing_customer_id=$2, updated_at=NOW() WHERE id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, userID, customerID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.User
	err = ex.QueryRow(ctx, q, args...).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Active, &u.Admin,
		&u.IdentityUID, &u.BillingCustomerID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}
