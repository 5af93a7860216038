package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/repository"
	"saas-subscription-backend/internal/infra/logging"
)

var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase manages the plan catalog. Reads are public; writes are
// admin-only and enforced here, not in the transport layer.
type PlanUseCase interface {
	ListActive(ctx context.Context, offset, limit int) ([]*model.Plan, error)
	Get(ctx context.Context, planID string) (*model.Plan, error)

	Create(ctx context.Context, caller *model.User, in CreatePlanInput) (*model.Plan, error)
	Update(ctx context.Context, caller *model.User, planID string, in UpdatePlanInput) (*model.Plan, error)
	Deactivate(ctx context.Context, caller *model.User, planID string) error
}

type CreatePlanInput struct {
	Name            string
	Description     string
	PriceCents      int64
	Interval        model.BillingInterval
	ProviderPriceID string
}

// UpdatePlanInput carries optional field updates. Nil means unchanged.
type UpdatePlanInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Interval    *model.BillingInterval
}

type planUC struct {
	plans repository.PlanRepository
	subs  repository.SubscriptionRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.PlanRepository, subs repository.SubscriptionRepository, tm repository.TransactionManager, logger *zerolog.Logger) *planUC {
	return &planUC{plans: plans, subs: subs, tm: tm, log: logger}
}

func (u *planUC) ListActive(ctx context.Context, offset, limit int) ([]*model.Plan, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return u.plans.ListActive(ctx, repository.NoTX, offset, limit)
}

func (u *planUC) Get(ctx context.Context, planID string) (*model.Plan, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: plan %s", domain.ErrPlanNotFound, planID)
	}
	return plan, nil
}

func (u *planUC) Create(ctx context.Context, caller *model.User, in CreatePlanInput) (*model.Plan, error) {
	defer logging.TraceDuration(u.log, "PlanUC.Create")()
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	plan, err := model.NewPlan(newID(), in.Name, in.Description, in.PriceCents, in.Interval, in.ProviderPriceID)
	if err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	u.log.Info().Str("plan_id", plan.ID).Str("name", plan.Name).Msg("plan created")
	return plan, nil
}

func (u *planUC) Update(ctx context.Context, caller *model.User, planID string, in UpdatePlanInput) (*model.Plan, error) {
	defer logging.TraceDuration(u.log, "PlanUC.Update")()
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}

	var out *model.Plan
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		plan, err := u.plans.FindByID(ctx, tx, planID)
		if err != nil {
			return fmt.Errorf("%w: plan %s", domain.ErrPlanNotFound, planID)
		}

		// Price and interval freeze once any subscription references the plan.
		if in.PriceCents != nil || in.Interval != nil {
			n, err := u.subs.CountByPlan(ctx, tx, planID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %d subscriptions reference plan %s", domain.ErrPlanInUse, n, planID)
			}
		}

		if in.Name != nil {
			plan.Name = *in.Name
		}
		if in.Description != nil {
			plan.Description = *in.Description
		}
		if in.PriceCents != nil {
			if *in.PriceCents < 0 {
				return domain.ErrInvalidArgument
			}
			plan.PriceCents = *in.PriceCents
		}
		if in.Interval != nil {
			if *in.Interval != model.IntervalMonth && *in.Interval != model.IntervalYear {
				return domain.ErrInvalidArgument
			}
			plan.Interval = *in.Interval
		}
		plan.UpdatedAt = time.Now()

		if err := u.plans.Save(ctx, tx, plan); err != nil {
			return err
		}
		out = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *planUC) Deactivate(ctx context.Context, caller *model.User, planID string) error {
	defer logging.TraceDuration(u.log, "PlanUC.Deactivate")()
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if err := u.plans.SetActive(ctx, repository.NoTX, planID, false); err != nil {
		return err
	}
	u.log.Info().Str("plan_id", planID).Msg("plan deactivated")
	return nil
}
