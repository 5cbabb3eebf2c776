package plan

import (
	"gym-admin-service/internal/domain/user"

	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	PlanCode     string          `json:"plan_code" binding:"required,min=2,max=50"`
	Name         string          `json:"name" binding:"required,min=2,max=100"`
	Description  string          `json:"description" binding:"omitempty,max=500"`
	UserCategory user.Category   `json:"user_category" binding:"required,user_category"`
	Price        decimal.Decimal `json:"price" binding:"gte=0"`
	Currency     string          `json:"currency" binding:"omitempty,len=3"`
	DurationDays int             `json:"duration_days" binding:"required,min=1,max=3650"`
}

// UpdatePlanRequest changes catalog fields. Category and activation have
// their own operations.
type UpdatePlanRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=2,max=100"`
	Description  *string          `json:"description" binding:"omitempty,max=500"`
	Price        *decimal.Decimal `json:"price"`
	DurationDays *int             `json:"duration_days" binding:"omitempty,min=1,max=3650"`
}

type PlanListFilters struct {
	UserCategory *user.Category `form:"user_category" binding:"omitempty,user_category"`
	IsActive     *bool          `form:"is_active"`
	Page         int            `form:"page" binding:"omitempty,min=1"`
	PageSize     int            `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type PlanListResponse struct {
	Plans      []Plan `json:"plans"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}
