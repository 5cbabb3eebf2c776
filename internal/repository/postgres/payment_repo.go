// internal/repository/postgres/payment_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gym-admin-service/internal/domain/payment"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/pkg/pagination"

	"github.com/jackc/pgx/v5"
)

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, subscription_id, payment_reference, gateway_reference, amount, currency, status,
	payment_method, gateway_response, retry_count, failure_reason, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row, t *payment.Transaction) error {
	var gatewayJSON []byte
	err := row.Scan(
		&t.ID, &t.SubscriptionID, &t.PaymentReference, &t.GatewayReference, &t.Amount, &t.Currency, &t.Status,
		&t.PaymentMethod, &gatewayJSON, &t.RetryCount, &t.FailureReason, &t.PaidAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if len(gatewayJSON) > 0 {
		if err := json.Unmarshal(gatewayJSON, &t.GatewayResponse); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}

func marshalGatewayResponse(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway response: %w", err)
	}
	return b, nil
}

func (r *PaymentRepository) Create(ctx context.Context, t *payment.Transaction) error {
	gatewayJSON, err := marshalGatewayResponse(t.GatewayResponse)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payment_transactions (
			subscription_id, payment_reference, gateway_reference, amount, currency, status,
			payment_method, gateway_response, retry_count, failure_reason, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err = r.db.conn(ctx).QueryRow(ctx, query,
		t.SubscriptionID, t.PaymentReference, t.GatewayReference, t.Amount, t.Currency, t.Status,
		t.PaymentMethod, gatewayJSON, t.RetryCount, t.FailureReason, t.PaidAt,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment reference %s: %w", t.PaymentReference, xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*payment.Transaction, error) {
	return r.findByID(ctx, id, false)
}

func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*payment.Transaction, error) {
	return r.findByID(ctx, id, true)
}

func (r *PaymentRepository) findByID(ctx context.Context, id int64, lock bool) (*payment.Transaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var t payment.Transaction
	err := scanPayment(r.db.conn(ctx).QueryRow(ctx, query, id), &t)
	if isNoRows(err) {
		return nil, xerrors.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment transaction: %w", err)
	}
	return &t, nil
}

func (r *PaymentRepository) Update(ctx context.Context, t *payment.Transaction) error {
	gatewayJSON, err := marshalGatewayResponse(t.GatewayResponse)
	if err != nil {
		return err
	}

	query := `
		UPDATE payment_transactions
		SET amount = $1, status = $2, payment_method = $3, gateway_reference = $4, gateway_response = $5,
		    retry_count = $6, failure_reason = $7, paid_at = $8, updated_at = $9
		WHERE id = $10
		RETURNING updated_at
	`

	err = r.db.conn(ctx).QueryRow(ctx, query,
		t.Amount, t.Status, t.PaymentMethod, t.GatewayReference, gatewayJSON,
		t.RetryCount, t.FailureReason, t.PaidAt, time.Now(), t.ID,
	).Scan(&t.UpdatedAt)
	if isNoRows(err) {
		return xerrors.ErrPaymentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update payment transaction: %w", err)
	}
	return nil
}

func buildPaymentFilter(filters *payment.PaymentListFilters) (string, []interface{}, int) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	if filters.SubscriptionID != nil {
		conditions = append(conditions, fmt.Sprintf("subscription_id = $%d", argPos))
		args = append(args, *filters.SubscriptionID)
		argPos++
	}

	if filters.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("payment_method = $%d", argPos))
		args = append(args, filters.PaymentMethod)
		argPos++
	}

	return strings.Join(conditions, " AND "), args, argPos
}

func (r *PaymentRepository) List(ctx context.Context, filters *payment.PaymentListFilters) ([]payment.Transaction, int64, error) {
	whereClause, args, argPos := buildPaymentFilter(filters)

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payment_transactions WHERE %s", whereClause)
	if err := r.db.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payment transactions: %w", err)
	}

	page, pageSize := pagination.Normalize(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM payment_transactions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, paymentColumns, whereClause, argPos, argPos+1)
	args = append(args, pageSize, pagination.Offset(page, pageSize))

	payments, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *PaymentRepository) ListBySubscription(ctx context.Context, subscriptionID int64) ([]payment.Transaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE subscription_id = $1 ORDER BY created_at, id`
	return r.query(ctx, query, subscriptionID)
}

func (r *PaymentRepository) query(ctx context.Context, query string, args ...interface{}) ([]payment.Transaction, error) {
	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	defer rows.Close()

	payments := []payment.Transaction{}
	for rows.Next() {
		var t payment.Transaction
		if err := scanPayment(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}
		payments = append(payments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment transactions: %w", err)
	}

	return payments, nil
}
