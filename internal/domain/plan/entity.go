// internal/domain/plan/entity.go
package plan

import (
	"context"
	"time"

	"gym-admin-service/internal/domain/user"
	xerrors "gym-admin-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
)

// Plan is a sellable membership product. Plans are deactivated, never deleted,
// so subscriptions always resolve their plan.
type Plan struct {
	ID           int64           `json:"id" db:"id"`
	PlanCode     string          `json:"plan_code" db:"plan_code"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description,omitempty" db:"description"`
	UserCategory user.Category   `json:"user_category" db:"user_category"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Currency     string          `json:"currency" db:"currency"`
	DurationDays int             `json:"duration_days" db:"duration_days"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// CheckSellableTo returns ErrPlanInactive or ErrUserCategoryMismatch when the
// plan cannot be sold to a member of the given category.
func (p *Plan) CheckSellableTo(category user.Category) error {
	if !p.IsActive {
		return xerrors.ErrPlanInactive
	}
	if p.UserCategory != category {
		return xerrors.ErrUserCategoryMismatch
	}
	return nil
}

// PeriodEnd is the end of a membership period that starts at start.
func (p *Plan) PeriodEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, p.DurationDays)
}

type Repository interface {
	Create(ctx context.Context, p *Plan) error
	FindByID(ctx context.Context, id int64) (*Plan, error)
	Update(ctx context.Context, p *Plan) error
	SetActive(ctx context.Context, id int64, active bool) error
	List(ctx context.Context, filters *PlanListFilters) ([]Plan, int64, error)
}
