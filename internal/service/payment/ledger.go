// internal/service/payment/ledger.go
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/subscription"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/pkg/pagination"
	"gym-admin-service/internal/pkg/reference"
	"gym-admin-service/internal/pkg/sanitize"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger persists payment transactions and applies their status transitions.
type Ledger struct {
	paymentRepo      payment.Repository
	subscriptionRepo subscription.Repository
	logger           *zap.Logger
	now              func() time.Time
}

func NewLedger(paymentRepo payment.Repository, subscriptionRepo subscription.Repository, logger *zap.Logger) *Ledger {
	return &Ledger{
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// RecordForSubscription stores a payment collected at the desk as completed.
func (l *Ledger) RecordForSubscription(ctx context.Context, subscriptionID int64, amount decimal.Decimal, currency, method string) (*payment.Transaction, error) {
	if amount.IsNegative() {
		return nil, xerrors.ErrInvalidAmount
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = payment.MethodCash
	}

	t := payment.NewCompleted(subscriptionID, reference.Payment(), amount.Round(2), strings.ToUpper(currency), method, l.now())
	if err := l.paymentRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	l.logger.Info("payment recorded",
		zap.Int64("payment_id", t.ID),
		zap.String("payment_reference", t.PaymentReference),
		zap.Int64("subscription_id", subscriptionID),
		zap.String("amount", t.Amount.StringFixed(2)),
		zap.String("payment_method", method),
	)
	return t, nil
}

// Lock loads a payment and holds its row for the rest of the unit of work
// carried by ctx.
func (l *Ledger) Lock(ctx context.Context, id int64) (*payment.Transaction, error) {
	return l.paymentRepo.FindByIDForUpdate(ctx, id)
}

// The Apply methods transition a payment already locked in ctx and save it.
// They never touch the owning subscription; lifecycle.Coordinator calls them
// inside the unit of work that keeps both ledgers consistent.

// ApplyRetry moves a failed or cancelled payment back to pending.
func (l *Ledger) ApplyRetry(ctx context.Context, t *payment.Transaction) error {
	if err := t.Retry(l.now()); err != nil {
		return err
	}
	return l.save(ctx, t)
}

func (l *Ledger) ApplyCompleted(ctx context.Context, t *payment.Transaction, amountPaid decimal.Decimal, method, notes string) error {
	if err := t.Complete(amountPaid.Round(2), strings.TrimSpace(method), sanitize.Text(notes), l.now()); err != nil {
		return err
	}
	return l.save(ctx, t)
}

func (l *Ledger) ApplyFailed(ctx context.Context, t *payment.Transaction, reason string) error {
	if err := t.Fail(sanitize.Text(reason), l.now()); err != nil {
		return err
	}
	return l.save(ctx, t)
}

func (l *Ledger) ApplyCancelled(ctx context.Context, t *payment.Transaction, reason string) error {
	if err := t.Cancel(sanitize.Text(reason), l.now()); err != nil {
		return err
	}
	return l.save(ctx, t)
}

func (l *Ledger) GetByID(ctx context.Context, id int64) (*payment.Transaction, error) {
	return l.paymentRepo.FindByID(ctx, id)
}

func (l *Ledger) List(ctx context.Context, filters *payment.PaymentListFilters) (*payment.PaymentListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)

	payments, total, err := l.paymentRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &payment.PaymentListResponse{
		Payments:   payments,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}

// ListForSubscription returns every attempt made against a subscription,
// oldest first.
func (l *Ledger) ListForSubscription(ctx context.Context, subscriptionID int64) ([]payment.Transaction, error) {
	if _, err := l.subscriptionRepo.FindByID(ctx, subscriptionID); err != nil {
		return nil, err
	}
	return l.paymentRepo.ListBySubscription(ctx, subscriptionID)
}

func (l *Ledger) save(ctx context.Context, t *payment.Transaction) error {
	if err := l.paymentRepo.Update(ctx, t); err != nil {
		return fmt.Errorf("failed to update payment transaction: %w", err)
	}
	return nil
}
