package memory

import (
	"context"
	"fmt"
	"sort"

	"gym-admin-service/internal/domain/plan"
	xerrors "gym-admin-service/internal/pkg/errors"
)

type PlanRepository struct {
	store *Store
}

func NewPlanRepository(store *Store) *PlanRepository {
	return &PlanRepository{store: store}
}

func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	defer r.store.writeLock(ctx)()

	for _, existing := range r.store.data.plans {
		if existing.PlanCode == p.PlanCode {
			return fmt.Errorf("plan code %s: %w", p.PlanCode, xerrors.ErrConflict)
		}
	}

	now := r.store.now()
	p.ID = r.store.nextID()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.store.data.plans[p.ID] = *p
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id int64) (*plan.Plan, error) {
	defer r.store.readLock(ctx)()

	p, ok := r.store.data.plans[id]
	if !ok {
		return nil, xerrors.ErrPlanNotFound
	}
	return &p, nil
}

func (r *PlanRepository) Update(ctx context.Context, p *plan.Plan) error {
	defer r.store.writeLock(ctx)()

	existing, ok := r.store.data.plans[p.ID]
	if !ok {
		return xerrors.ErrPlanNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Price = p.Price
	existing.DurationDays = p.DurationDays
	existing.UpdatedAt = r.store.now()
	r.store.data.plans[p.ID] = existing

	p.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *PlanRepository) SetActive(ctx context.Context, id int64, active bool) error {
	defer r.store.writeLock(ctx)()

	existing, ok := r.store.data.plans[id]
	if !ok {
		return xerrors.ErrPlanNotFound
	}
	existing.IsActive = active
	existing.UpdatedAt = r.store.now()
	r.store.data.plans[id] = existing
	return nil
}

func (r *PlanRepository) List(ctx context.Context, filters *plan.PlanListFilters) ([]plan.Plan, int64, error) {
	defer r.store.readLock(ctx)()

	plans := []plan.Plan{}
	for _, p := range r.store.data.plans {
		if filters.UserCategory != nil && p.UserCategory != *filters.UserCategory {
			continue
		}
		if filters.IsActive != nil && p.IsActive != *filters.IsActive {
			continue
		}
		plans = append(plans, p)
	}

	sort.Slice(plans, func(i, j int) bool {
		a, b := plans[i], plans[j]
		if a.UserCategory != b.UserCategory {
			return a.UserCategory < b.UserCategory
		}
		if !a.Price.Equal(b.Price) {
			return a.Price.LessThan(b.Price)
		}
		return a.ID < b.ID
	})
	return paginate(plans, filters.Page, filters.PageSize), int64(len(plans)), nil
}
