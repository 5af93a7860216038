package repository

import (
	"context"

	"saas-subscription-backend/internal/domain/model"
)

// ProjectRepository is the port for projects and their membership sets.
type ProjectRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Project) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Project, error)
	ListByMember(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Project, error)
	Delete(ctx context.Context, tx Tx, id string) error
	AddMember(ctx context.Context, tx Tx, projectID, userID string) error
	RemoveMember(ctx context.Context, tx Tx, projectID, userID string) error
}
