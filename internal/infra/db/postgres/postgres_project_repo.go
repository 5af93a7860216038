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

// Ensure projectRepo implements repository.ProjectRepository
var _ repository.ProjectRepository = (*projectRepo)(nil)

type projectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *projectRepo {
	return &projectRepo{pool: pool}
}

func (r *projectRepo) Save(ctx context.Context, tx repository.Tx, p *model.Project) error {
	const q = `
INSERT INTO projects (id, name, description, owner_id, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, active=$5, updated_at=$7;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.Name, p.Description, p.OwnerID, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *projectRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Project, error) {
	const q = `
SELECT id, name, description, owner_id, active, created_at, updated_at
  FROM projects
 WHERE id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var p model.Project
	err = ex.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	members, err := r.listMembers(ctx, ex, id)
	if err != nil {
		return nil, err
	}
	p.MemberIDs = members
	return &p, nil
}

func (r *projectRepo) ListByMember(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Project, error) {
	const q = `
SELECT DISTINCT p.id, p.name, p.description, p.owner_id, p.active, p.created_at, p.updated_at
  FROM projects p
  LEFT JOIN project_members m ON m.project_id = p.id
 WHERE p.owner_id=$1 OR m.user_id=$1
 ORDER BY p.created_at DESC
OFFSET $2 LIMIT $3;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *projectRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM projects WHERE id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *projectRepo) AddMember(ctx context.Context, tx repository.Tx, projectID, userID string) error {
	const q = `
INSERT INTO project_members (project_id, user_id)
VALUES ($1,$2)
ON CONFLICT DO NOTHING;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, projectID, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// foreign key: project or user does not exist
			return domain.ErrNotFound
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *projectRepo) RemoveMember(ctx context.Context, tx repository.Tx, projectID, userID string) error {
	const q = `DELETE FROM project_members WHERE project_id=$1 AND user_id=$2;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, projectID, userID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *projectRepo) listMembers(ctx context.Context, ex executor, projectID string) ([]string, error) {
	const q = `SELECT user_id FROM project_members WHERE project_id=$1 ORDER BY user_id;`
	rows, err := ex.Query(ctx, q, projectID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
