// internal/domain/subscription/dto.go
package subscription

import (
	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/user"

	"github.com/shopspring/decimal"
)

type WalkInRequest struct {
	UserID        int64            `json:"user_id" binding:"required,min=1"`
	PlanID        int64            `json:"plan_id" binding:"required,min=1"`
	AmountPaid    *decimal.Decimal `json:"amount_paid" binding:"required,gte=0"`
	PaymentMethod string           `json:"payment_method" binding:"omitempty,payment_method"`
	AutoRenew     bool             `json:"auto_renew"`
}

// WalkInResult is the pair written by one walk-in sign-up.
type WalkInResult struct {
	Subscription *UserSubscription    `json:"subscription"`
	Payment      *payment.Transaction `json:"payment"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type ExtendSubscriptionRequest struct {
	Days int `json:"days" binding:"required,min=1,max=365"`
}

type SubscriptionListFilters struct {
	Status       *Status        `form:"status" binding:"omitempty,oneof=pending active expired cancelled"`
	UserCategory *user.Category `form:"user_category" binding:"omitempty,user_category"`
	PlanID       *int64         `form:"plan_id"`
	UserID       *int64         `form:"user_id"`
	Page         int            `form:"page" binding:"omitempty,min=1"`
	PageSize     int            `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type SubscriptionListResponse struct {
	Subscriptions []UserSubscription `json:"subscriptions"`
	Total         int64              `json:"total"`
	Page          int                `json:"page"`
	PageSize      int                `json:"page_size"`
	TotalPages    int                `json:"total_pages"`
}
