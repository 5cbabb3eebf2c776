// internal/domain/payment/entity.go
package payment

import (
	"context"
	"fmt"
	"time"

	xerrors "gym-admin-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

const (
	MethodCash         = "cash"
	MethodCard         = "card"
	MethodMobileMoney  = "mobile_money"
	MethodBankTransfer = "bank_transfer"
	MethodGateway      = "gateway"
)

// Methods lists the accepted payment methods.
var Methods = []string{MethodCash, MethodCard, MethodMobileMoney, MethodBankTransfer, MethodGateway}

// auditKey holds the admin audit trail inside the gateway response payload.
const auditKey = "admin_audit"

// Transaction is a single payment attempt against one subscription.
type Transaction struct {
	ID               int64                  `json:"id" db:"id"`
	SubscriptionID   int64                  `json:"subscription_id" db:"subscription_id"`
	PaymentReference string                 `json:"payment_reference" db:"payment_reference"`
	GatewayReference string                 `json:"gateway_reference,omitempty" db:"gateway_reference"`
	Amount           decimal.Decimal        `json:"amount" db:"amount"`
	Currency         string                 `json:"currency" db:"currency"`
	Status           Status                 `json:"status" db:"status"`
	PaymentMethod    string                 `json:"payment_method" db:"payment_method"`
	GatewayResponse  map[string]interface{} `json:"gateway_response,omitempty" db:"gateway_response"`
	RetryCount       int                    `json:"retry_count" db:"retry_count"`
	FailureReason    string                 `json:"failure_reason,omitempty" db:"failure_reason"`
	PaidAt           *time.Time             `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
}

// NewCompleted builds a payment that was settled at the desk.
func NewCompleted(subscriptionID int64, reference string, amount decimal.Decimal, currency, method string, now time.Time) *Transaction {
	paidAt := now
	return &Transaction{
		SubscriptionID:   subscriptionID,
		PaymentReference: reference,
		Amount:           amount,
		Currency:         currency,
		Status:           StatusCompleted,
		PaymentMethod:    method,
		PaidAt:           &paidAt,
	}
}

// Retry moves a failed or cancelled payment back to pending.
func (t *Transaction) Retry(now time.Time) error {
	if t.Status != StatusFailed && t.Status != StatusCancelled {
		return fmt.Errorf("%w: payment is %s", xerrors.ErrNotRetryable, t.Status)
	}
	previous := t.Status
	t.Status = StatusPending
	t.RetryCount++
	t.FailureReason = ""
	t.appendAudit("retry", now, map[string]interface{}{
		"previous_status": string(previous),
		"attempt":         t.RetryCount,
	})
	return nil
}

// Complete settles the payment with the amount actually received.
func (t *Transaction) Complete(amount decimal.Decimal, method, notes string, now time.Time) error {
	if t.Status == StatusCompleted {
		return xerrors.ErrAlreadyCompleted
	}
	if amount.IsNegative() {
		return xerrors.ErrInvalidAmount
	}
	previous := t.Status
	paidAt := now
	t.Status = StatusCompleted
	t.Amount = amount
	if method != "" {
		t.PaymentMethod = method
	}
	t.PaidAt = &paidAt
	t.FailureReason = ""

	entry := map[string]interface{}{
		"previous_status": string(previous),
		"amount":          amount.StringFixed(2),
		"payment_method":  t.PaymentMethod,
	}
	if notes != "" {
		entry["notes"] = notes
	}
	t.appendAudit("complete", now, entry)
	return nil
}

// Fail records a gateway or desk rejection of a pending payment.
func (t *Transaction) Fail(reason string, now time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: cannot fail a %s payment", xerrors.ErrInvalidTransition, t.Status)
	}
	t.Status = StatusFailed
	t.FailureReason = reason
	t.appendAudit("fail", now, map[string]interface{}{"reason": reason})
	return nil
}

// Cancel abandons a pending payment.
func (t *Transaction) Cancel(reason string, now time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: cannot cancel a %s payment", xerrors.ErrInvalidTransition, t.Status)
	}
	t.Status = StatusCancelled
	t.FailureReason = reason
	t.appendAudit("cancel", now, map[string]interface{}{"reason": reason})
	return nil
}

// AuditTrail returns the admin actions recorded against the payment.
func (t *Transaction) AuditTrail() []interface{} {
	if t.GatewayResponse == nil {
		return nil
	}
	trail, _ := t.GatewayResponse[auditKey].([]interface{})
	return trail
}

func (t *Transaction) appendAudit(action string, at time.Time, fields map[string]interface{}) {
	if t.GatewayResponse == nil {
		t.GatewayResponse = make(map[string]interface{})
	}
	entry := map[string]interface{}{
		"action": action,
		"at":     at.UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		entry[k] = v
	}

	trail := t.AuditTrail()
	next := make([]interface{}, 0, len(trail)+1)
	next = append(next, trail...)
	t.GatewayResponse[auditKey] = append(next, entry)
}

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, id int64) (*Transaction, error)
	// FindByIDForUpdate locks the row until the surrounding unit of work ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	List(ctx context.Context, filters *PaymentListFilters) ([]Transaction, int64, error)
	ListBySubscription(ctx context.Context, subscriptionID int64) ([]Transaction, error)
}
