package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/repository"
	"saas-subscription-backend/internal/infra/logging"
)

var _ ProjectUseCase = (*projectUC)(nil)

// ProjectUseCase manages user projects and their membership.
type ProjectUseCase interface {
	Create(ctx context.Context, caller *model.User, name, description string) (*model.Project, error)
	Get(ctx context.Context, caller *model.User, projectID string) (*model.Project, error)
	List(ctx context.Context, caller *model.User, offset, limit int) ([]*model.Project, error)
	Update(ctx context.Context, caller *model.User, projectID, name, description string) (*model.Project, error)
	Delete(ctx context.Context, caller *model.User, projectID string) error
	AddMember(ctx context.Context, caller *model.User, projectID, userID string) error
	RemoveMember(ctx context.Context, caller *model.User, projectID, userID string) error
}

type projectUC struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewProjectUseCase(projects repository.ProjectRepository, users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *projectUC {
	return &projectUC{projects: projects, users: users, tm: tm, log: logger}
}

func (u *projectUC) Create(ctx context.Context, caller *model.User, name, description string) (*model.Project, error) {
	defer logging.TraceDuration(u.log, "ProjectUC.Create")()
	if caller == nil {
		return nil, domain.ErrForbidden
	}
	p, err := model.NewProject(uuid.NewString(), name, description, caller.ID)
	if err != nil {
		return nil, err
	}
	if err := u.projects.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *projectUC) Get(ctx context.Context, caller *model.User, projectID string) (*model.Project, error) {
	p, err := u.projects.FindByID(ctx, repository.NoTX, projectID)
	if err != nil {
		return nil, err
	}
	if err := u.requireMemberOrAdmin(caller, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *projectUC) List(ctx context.Context, caller *model.User, offset, limit int) ([]*model.Project, error) {
	if caller == nil {
		return nil, domain.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return u.projects.ListByMember(ctx, repository.NoTX, caller.ID, offset, limit)
}

func (u *projectUC) Update(ctx context.Context, caller *model.User, projectID, name, description string) (*model.Project, error) {
	defer logging.TraceDuration(u.log, "ProjectUC.Update")()

	var out *model.Project
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.projects.FindByID(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if err := RequireOwnerOrAdmin(caller, p.OwnerID); err != nil {
			return err
		}
		if name != "" {
			p.Name = name
		}
		p.Description = description
		p.UpdatedAt = time.Now()
		if err := u.projects.Save(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *projectUC) Delete(ctx context.Context, caller *model.User, projectID string) error {
	defer logging.TraceDuration(u.log, "ProjectUC.Delete")()
	p, err := u.projects.FindByID(ctx, repository.NoTX, projectID)
	if err != nil {
		return err
	}
	if err := RequireOwnerOrAdmin(caller, p.OwnerID); err != nil {
		return err
	}
	return u.projects.Delete(ctx, repository.NoTX, projectID)
}

func (u *projectUC) AddMember(ctx context.Context, caller *model.User, projectID, userID string) error {
	p, err := u.projects.FindByID(ctx, repository.NoTX, projectID)
	if err != nil {
		return err
	}
	if err := RequireOwnerOrAdmin(caller, p.OwnerID); err != nil {
		return err
	}
	// Reject unknown users up front so membership rows never dangle.
	if _, err := u.users.FindByID(ctx, repository.NoTX, userID); err != nil {
		return err
	}
	return u.projects.AddMember(ctx, repository.NoTX, projectID, userID)
}

func (u *projectUC) RemoveMember(ctx context.Context, caller *model.User, projectID, userID string) error {
	p, err := u.projects.FindByID(ctx, repository.NoTX, projectID)
	if err != nil {
		return err
	}
	// A member may remove themselves; anyone else needs owner or admin.
	if caller == nil || (caller.ID != userID && RequireOwnerOrAdmin(caller, p.OwnerID) != nil) {
		return domain.ErrForbidden
	}
	return u.projects.RemoveMember(ctx, repository.NoTX, projectID, userID)
}

func (u *projectUC) requireMemberOrAdmin(caller *model.User, p *model.Project) error {
	if caller == nil {
		return domain.ErrForbidden
	}
	if caller.Admin || p.OwnerID == caller.ID || p.HasMember(caller.ID) {
		return nil
	}
	return domain.ErrForbidden
}
