// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gym-admin-service/internal/domain/subscription"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/pkg/pagination"

	"github.com/jackc/pgx/v5"
)

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `s.id, s.subscription_reference, s.user_id, s.plan_id, s.status, s.payment_status,
	s.start_date, s.end_date, s.amount_paid, s.currency, s.auto_renew, s.duration_days,
	s.cancelled_at, s.cancellation_reason, s.created_at, s.updated_at`

func scanSubscription(row pgx.Row, sub *subscription.UserSubscription) error {
	return row.Scan(
		&sub.ID, &sub.SubscriptionReference, &sub.UserID, &sub.PlanID, &sub.Status, &sub.PaymentStatus,
		&sub.StartDate, &sub.EndDate, &sub.AmountPaid, &sub.Currency, &sub.AutoRenew, &sub.DurationDays,
		&sub.CancelledAt, &sub.CancellationReason, &sub.CreatedAt, &sub.UpdatedAt,
	)
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.UserSubscription) error {
	query := `
		INSERT INTO user_subscriptions (
			subscription_reference, user_id, plan_id, status, payment_status,
			start_date, end_date, amount_paid, currency, auto_renew, duration_days
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		sub.SubscriptionReference, sub.UserID, sub.PlanID, sub.Status, sub.PaymentStatus,
		sub.StartDate, sub.EndDate, sub.AmountPaid, sub.Currency, sub.AutoRenew, sub.DurationDays,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("subscription reference %s: %w", sub.SubscriptionReference, xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id int64) (*subscription.UserSubscription, error) {
	return r.findByID(ctx, id, false)
}

func (r *SubscriptionRepository) FindByIDForUpdate(ctx context.Context, id int64) (*subscription.UserSubscription, error) {
	return r.findByID(ctx, id, true)
}

func (r *SubscriptionRepository) findByID(ctx context.Context, id int64, lock bool) (*subscription.UserSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions s WHERE s.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var sub subscription.UserSubscription
	err := scanSubscription(r.db.conn(ctx).QueryRow(ctx, query, id), &sub)
	if isNoRows(err) {
		return nil, xerrors.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.UserSubscription) error {
	query := `
		UPDATE user_subscriptions
		SET status = $1, payment_status = $2, start_date = $3, end_date = $4, amount_paid = $5,
		    auto_renew = $6, cancelled_at = $7, cancellation_reason = $8, updated_at = $9
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		sub.Status, sub.PaymentStatus, sub.StartDate, sub.EndDate, sub.AmountPaid,
		sub.AutoRenew, sub.CancelledAt, sub.CancellationReason, time.Now(), sub.ID,
	).Scan(&sub.UpdatedAt)
	if isNoRows(err) {
		return xerrors.ErrSubscriptionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// buildSubscriptionFilter returns the WHERE clause, its arguments and the
// next free placeholder position. Status filters compare against the status
// observed at now, so an active row past its end date matches "expired".
func buildSubscriptionFilter(filters *subscription.SubscriptionListFilters, now time.Time) (string, []interface{}, int) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		switch *filters.Status {
		case subscription.StatusActive:
			conditions = append(conditions, fmt.Sprintf("s.status = 'active' AND (s.end_date IS NULL OR s.end_date >= $%d)", argPos))
			args = append(args, now)
			argPos++
		case subscription.StatusExpired:
			conditions = append(conditions, fmt.Sprintf("(s.status = 'expired' OR (s.status = 'active' AND s.end_date < $%d))", argPos))
			args = append(args, now)
			argPos++
		default:
			conditions = append(conditions, fmt.Sprintf("s.status = $%d", argPos))
			args = append(args, *filters.Status)
			argPos++
		}
	}

	if filters.UserCategory != nil {
		conditions = append(conditions, fmt.Sprintf("u.category = $%d", argPos))
		args = append(args, *filters.UserCategory)
		argPos++
	}

	if filters.PlanID != nil {
		conditions = append(conditions, fmt.Sprintf("s.plan_id = $%d", argPos))
		args = append(args, *filters.PlanID)
		argPos++
	}

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("s.user_id = $%d", argPos))
		args = append(args, *filters.UserID)
		argPos++
	}

	return strings.Join(conditions, " AND "), args, argPos
}

func (r *SubscriptionRepository) List(ctx context.Context, filters *subscription.SubscriptionListFilters, now time.Time) ([]subscription.UserSubscription, int64, error) {
	whereClause, args, argPos := buildSubscriptionFilter(filters, now)
	from := `FROM user_subscriptions s JOIN users u ON u.id = s.user_id`

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", from, whereClause)
	if err := r.db.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	page, pageSize := pagination.Normalize(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s %s
		WHERE %s
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $%d OFFSET $%d
	`, subscriptionColumns, from, whereClause, argPos, argPos+1)
	args = append(args, pageSize, pagination.Offset(page, pageSize))

	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subscriptions := []subscription.UserSubscription{}
	for rows.Next() {
		var sub subscription.UserSubscription
		if err := scanSubscription(rows, &sub); err != nil {
			return nil, 0, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}

	return subscriptions, total, nil
}
