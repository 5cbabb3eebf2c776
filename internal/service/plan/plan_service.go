// internal/service/plan/plan_service.go
package plan

import (
	"context"
	"fmt"
	"strings"

	"gym-admin-service/internal/domain/plan"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/pkg/pagination"

	"go.uber.org/zap"
)

type PlanService struct {
	repo            plan.Repository
	defaultCurrency string
	logger          *zap.Logger
}

func NewPlanService(repo plan.Repository, defaultCurrency string, logger *zap.Logger) *PlanService {
	return &PlanService{
		repo:            repo,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		logger:          logger,
	}
}

// CreatePlan adds an active plan to the catalog.
func (s *PlanService) CreatePlan(ctx context.Context, req *plan.CreatePlanRequest) (*plan.Plan, error) {
	if req.Price.IsNegative() {
		return nil, xerrors.ErrInvalidAmount
	}
	if req.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration_days must be positive", xerrors.ErrInvalidInput)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	p := &plan.Plan{
		PlanCode:     strings.ToUpper(strings.TrimSpace(req.PlanCode)),
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		UserCategory: req.UserCategory,
		Price:        req.Price.Round(2),
		Currency:     currency,
		DurationDays: req.DurationDays,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.Info("subscription plan created",
		zap.Int64("plan_id", p.ID),
		zap.String("plan_code", p.PlanCode),
		zap.String("user_category", string(p.UserCategory)),
		zap.String("price", p.Price.StringFixed(2)),
		zap.Int("duration_days", p.DurationDays),
	)

	return p, nil
}

func (s *PlanService) GetPlan(ctx context.Context, id int64) (*plan.Plan, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdatePlan edits catalog fields in place. Existing subscriptions keep the
// amount and period they were sold with.
func (s *PlanService) UpdatePlan(ctx context.Context, id int64, req *plan.UpdatePlanRequest) (*plan.Plan, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, xerrors.ErrInvalidAmount
		}
		p.Price = req.Price.Round(2)
	}
	if req.DurationDays != nil {
		if *req.DurationDays <= 0 {
			return nil, fmt.Errorf("%w: duration_days must be positive", xerrors.ErrInvalidInput)
		}
		p.DurationDays = *req.DurationDays
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.Info("subscription plan updated", zap.Int64("plan_id", p.ID))
	return p, nil
}

func (s *PlanService) ActivatePlan(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, true)
}

// DeactivatePlan withdraws the plan from sale. Plans are never deleted.
func (s *PlanService) DeactivatePlan(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, false)
}

func (s *PlanService) setActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.Info("subscription plan status changed",
		zap.Int64("plan_id", id),
		zap.Bool("is_active", active),
	)
	return nil
}

func (s *PlanService) ListPlans(ctx context.Context, filters *plan.PlanListFilters) (*plan.PlanListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)

	plans, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &plan.PlanListResponse{
		Plans:      plans,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}
