// internal/domain/subscription/entity.go
package subscription

import (
	"context"
	"fmt"
	"time"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/plan"
	xerrors "gym-admin-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

const (
	MinExtensionDays = 1
	MaxExtensionDays = 365
)

// UserSubscription binds a member to a plan for a period. Plan values are
// copied in at creation so later catalog edits do not rewrite history.
type UserSubscription struct {
	ID                    int64           `json:"id" db:"id"`
	SubscriptionReference string          `json:"subscription_reference" db:"subscription_reference"`
	UserID                int64           `json:"user_id" db:"user_id"`
	PlanID                int64           `json:"plan_id" db:"plan_id"`
	Status                Status          `json:"status" db:"status"`
	PaymentStatus         payment.Status  `json:"payment_status" db:"payment_status"`
	StartDate             *time.Time      `json:"start_date,omitempty" db:"start_date"`
	EndDate               *time.Time      `json:"end_date,omitempty" db:"end_date"`
	AmountPaid            decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	Currency              string          `json:"currency" db:"currency"`
	AutoRenew             bool            `json:"auto_renew" db:"auto_renew"`
	DurationDays          int             `json:"duration_days" db:"duration_days"`
	CancelledAt           *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason    string          `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// NewActive builds a paid subscription that starts now.
func NewActive(userID int64, p *plan.Plan, reference string, amountPaid decimal.Decimal, currency string, autoRenew bool, now time.Time) *UserSubscription {
	start := now
	end := p.PeriodEnd(now)
	return &UserSubscription{
		SubscriptionReference: reference,
		UserID:                userID,
		PlanID:                p.ID,
		Status:                StatusActive,
		PaymentStatus:         payment.StatusCompleted,
		StartDate:             &start,
		EndDate:               &end,
		AmountPaid:            amountPaid,
		Currency:              currency,
		AutoRenew:             autoRenew,
		DurationDays:          p.DurationDays,
	}
}

// EffectiveStatus is the status as observed at now. An active subscription
// whose end date has passed is expired; the stored row is never rewritten.
func (s *UserSubscription) EffectiveStatus(now time.Time) Status {
	if s.Status == StatusActive && s.EndDate != nil && s.EndDate.Before(now) {
		return StatusExpired
	}
	return s.Status
}

// Observe replaces the stored status with the effective one. Read paths call
// it before handing the record out.
func (s *UserSubscription) Observe(now time.Time) {
	s.Status = s.EffectiveStatus(now)
}

// Cancel ends a pending or active subscription. End date and amount paid are
// left as they were.
func (s *UserSubscription) Cancel(reason string, now time.Time) error {
	switch current := s.EffectiveStatus(now); current {
	case StatusPending, StatusActive:
	default:
		return fmt.Errorf("%w: cannot cancel a %s subscription", xerrors.ErrInvalidTransition, current)
	}
	cancelledAt := now
	s.Status = StatusCancelled
	s.CancelledAt = &cancelledAt
	s.CancellationReason = reason
	return nil
}

// Extend pushes the end date of an active subscription out by days.
func (s *UserSubscription) Extend(days int, now time.Time) error {
	if days < MinExtensionDays || days > MaxExtensionDays {
		return xerrors.ErrInvalidExtension
	}
	if current := s.EffectiveStatus(now); current != StatusActive {
		return fmt.Errorf("%w: subscription is %s", xerrors.ErrSubscriptionNotActive, current)
	}
	base := now
	if s.EndDate != nil {
		base = *s.EndDate
	}
	end := base.AddDate(0, 0, days)
	s.EndDate = &end
	return nil
}

// Activate turns a pending subscription into a paid one starting now.
func (s *UserSubscription) Activate(amountPaid decimal.Decimal, now time.Time) error {
	if s.Status != StatusPending {
		return fmt.Errorf("%w: cannot activate a %s subscription", xerrors.ErrInvalidTransition, s.Status)
	}
	start := now
	end := now.AddDate(0, 0, s.DurationDays)
	s.Status = StatusActive
	s.PaymentStatus = payment.StatusCompleted
	s.AmountPaid = amountPaid
	s.StartDate = &start
	s.EndDate = &end
	return nil
}

type Repository interface {
	Create(ctx context.Context, s *UserSubscription) error
	FindByID(ctx context.Context, id int64) (*UserSubscription, error)
	// FindByIDForUpdate locks the row until the surrounding unit of work ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*UserSubscription, error)
	Update(ctx context.Context, s *UserSubscription) error
	// List filters on effective status as of now.
	List(ctx context.Context, filters *SubscriptionListFilters, now time.Time) ([]UserSubscription, int64, error)
}
