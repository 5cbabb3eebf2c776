// internal/service/subscription/ledger.go
package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/plan"
	"gym-admin-service/internal/domain/subscription"
	"gym-admin-service/internal/domain/user"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/pkg/pagination"
	"gym-admin-service/internal/pkg/reference"
	"gym-admin-service/internal/pkg/sanitize"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Transactor runs fn as one unit of work. Calls made with the context passed
// to fn join it; a nested RunInTx joins the outer unit.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Ledger persists user subscriptions and applies their status transitions.
type Ledger struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	userRepo         user.Repository
	tx               Transactor
	logger           *zap.Logger
	now              func() time.Time
}

func NewLedger(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	userRepo user.Repository,
	tx Transactor,
	logger *zap.Logger,
) *Ledger {
	return &Ledger{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		userRepo:         userRepo,
		tx:               tx,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Create opens a paid subscription for a walk-in member. The plan must be
// active and sold to the member's category. An empty currency falls back to
// the plan's.
func (l *Ledger) Create(ctx context.Context, userID, planID int64, amountPaid decimal.Decimal, currency string, autoRenew bool) (*subscription.UserSubscription, error) {
	var sub *subscription.UserSubscription

	err := l.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := l.planRepo.FindByID(ctx, planID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return xerrors.ErrPlanInactive
		}

		u, err := l.userRepo.FindByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := p.CheckSellableTo(u.Category); err != nil {
			l.logger.Warn("walk-in rejected",
				zap.Int64("user_id", userID),
				zap.Int64("plan_id", planID),
				zap.String("user_category", string(u.Category)),
				zap.String("plan_category", string(p.UserCategory)),
				zap.Error(err),
			)
			return err
		}

		if !amountPaid.Equal(p.Price) {
			l.logger.Warn("walk-in amount differs from plan price",
				zap.Int64("plan_id", p.ID),
				zap.String("plan_price", p.Price.StringFixed(2)),
				zap.String("amount_paid", amountPaid.StringFixed(2)),
			)
		}

		cur := strings.ToUpper(strings.TrimSpace(currency))
		if cur == "" {
			cur = p.Currency
		}

		sub = subscription.NewActive(u.ID, p, reference.Subscription(), amountPaid.Round(2), cur, autoRenew, l.now())
		if err := l.subscriptionRepo.Create(ctx, sub); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("subscription created",
		zap.Int64("subscription_id", sub.ID),
		zap.String("subscription_reference", sub.SubscriptionReference),
		zap.Int64("user_id", userID),
		zap.Int64("plan_id", planID),
		zap.Time("end_date", *sub.EndDate),
	)

	return sub, nil
}

// Lock loads a subscription and holds its row for the rest of the unit of
// work carried by ctx.
func (l *Ledger) Lock(ctx context.Context, id int64) (*subscription.UserSubscription, error) {
	return l.subscriptionRepo.FindByIDForUpdate(ctx, id)
}

func (l *Ledger) Cancel(ctx context.Context, id int64, reason string) (*subscription.UserSubscription, error) {
	reason = sanitize.Text(reason)
	now := l.now()

	sub, err := l.mutate(ctx, id, func(sub *subscription.UserSubscription) error {
		return sub.Cancel(reason, now)
	})
	if err != nil {
		l.logger.Warn("subscription cancel rejected", zap.Int64("subscription_id", id), zap.Error(err))
		return nil, err
	}

	l.logger.Info("subscription cancelled",
		zap.Int64("subscription_id", sub.ID),
		zap.String("reason", reason),
	)
	return sub, nil
}

func (l *Ledger) Extend(ctx context.Context, id int64, days int) (*subscription.UserSubscription, error) {
	now := l.now()

	sub, err := l.mutate(ctx, id, func(sub *subscription.UserSubscription) error {
		return sub.Extend(days, now)
	})
	if err != nil {
		l.logger.Warn("subscription extend rejected",
			zap.Int64("subscription_id", id),
			zap.Int("days", days),
			zap.Error(err),
		)
		return nil, err
	}

	l.logger.Info("subscription extended",
		zap.Int64("subscription_id", sub.ID),
		zap.Int("days", days),
		zap.Time("end_date", *sub.EndDate),
	)
	return sub, nil
}

// Activate starts the term of a pending subscription whose payment has just
// been settled. Any other status is left untouched and reported as false.
func (l *Ledger) Activate(ctx context.Context, sub *subscription.UserSubscription, amountPaid decimal.Decimal) (bool, error) {
	if sub.Status != subscription.StatusPending {
		return false, nil
	}
	if err := sub.Activate(amountPaid.Round(2), l.now()); err != nil {
		return false, err
	}
	if err := l.subscriptionRepo.Update(ctx, sub); err != nil {
		return false, fmt.Errorf("failed to activate subscription: %w", err)
	}

	l.logger.Info("subscription activated",
		zap.Int64("subscription_id", sub.ID),
		zap.Time("end_date", *sub.EndDate),
	)
	return true, nil
}

// MirrorPaymentStatus copies a payment status onto a subscription that is
// still waiting for its first settlement.
func (l *Ledger) MirrorPaymentStatus(ctx context.Context, sub *subscription.UserSubscription, status payment.Status) error {
	if sub.Status != subscription.StatusPending || sub.PaymentStatus == status {
		return nil
	}
	sub.PaymentStatus = status
	if err := l.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription payment status: %w", err)
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, id int64) (*subscription.UserSubscription, error) {
	sub, err := l.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.Observe(l.now())
	return sub, nil
}

func (l *Ledger) List(ctx context.Context, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)
	now := l.now()

	subs, total, err := l.subscriptionRepo.List(ctx, filters, now)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].Observe(now)
	}

	return &subscription.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    pagination.TotalPages(total, filters.PageSize),
	}, nil
}

func (l *Ledger) mutate(ctx context.Context, id int64, apply func(*subscription.UserSubscription) error) (*subscription.UserSubscription, error) {
	var sub *subscription.UserSubscription

	err := l.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := l.subscriptionRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(current); err != nil {
			return err
		}
		if err := l.subscriptionRepo.Update(ctx, current); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		sub = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub.Observe(l.now())
	return sub, nil
}
