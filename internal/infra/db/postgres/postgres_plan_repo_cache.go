package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/repository"
	"saas-subscription-backend/internal/infra/metrics"
	red "saas-subscription-backend/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.Client
	ttl   time.Duration
}

// NewPlanRepoCacheDecorator wraps a PlanRepository with a Redis read-through
// cache. Reads inside a transaction bypass the cache so that callers holding
// row locks always see current data.
func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.Client, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if tx != repository.NoTX {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := fmt.Sprintf("plan:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		if bytes, err := json.Marshal(plan); err == nil {
			d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) FindByProviderPriceID(ctx context.Context, tx repository.Tx, priceID string) (*model.Plan, error) {
	// keyed by provider price id, invalidated together with plan writes
	if tx != repository.NoTX {
		return d.inner.FindByProviderPriceID(ctx, tx, priceID)
	}
	key := fmt.Sprintf("plan:price:%s", priceID)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByProviderPriceID(ctx, tx, priceID)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		if bytes, err := json.Marshal(plan); err == nil {
			d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Plan, error) {
	if tx != repository.NoTX || offset != 0 {
		return d.inner.ListActive(ctx, tx, offset, limit)
	}
	key := fmt.Sprintf("plans:active:%d", limit)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest("plan_list", "hit")
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListActive(ctx, tx, offset, limit)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if bytes, err := json.Marshal(plans); err == nil {
			d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return plans, nil
}

// Write operations invalidate both the per-plan keys and the list keys.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	d.invalidate(ctx, plan.ID, plan.ProviderPriceID)
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	d.invalidate(ctx, id, nil)
	return d.inner.SetActive(ctx, tx, id, active)
}

func (d *planRepoCacheDecorator) invalidate(ctx context.Context, id string, priceID *string) {
	keys := []string{fmt.Sprintf("plan:%s", id)}
	if priceID != nil {
		keys = append(keys, fmt.Sprintf("plan:price:%s", *priceID))
	}
	// list keys are bounded by the configured page sizes; sweep common ones
	for _, limit := range []int{10, 20, 50, 100} {
		keys = append(keys, fmt.Sprintf("plans:active:%d", limit))
	}
	d.cache.Del(ctx, keys...)
}
