// internal/repository/postgres/plan_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gym-admin-service/internal/domain/plan"
	xerrors "gym-admin-service/internal/pkg/errors"
	"gym-admin-service/internal/pkg/pagination"

	"github.com/jackc/pgx/v5"
)

type PlanRepository struct {
	db *DB
}

func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, plan_code, name, description, user_category, price, currency,
	duration_days, is_active, created_at, updated_at`

func scanPlan(row pgx.Row, p *plan.Plan) error {
	return row.Scan(
		&p.ID, &p.PlanCode, &p.Name, &p.Description, &p.UserCategory, &p.Price, &p.Currency,
		&p.DurationDays, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `
		INSERT INTO subscription_plans (
			plan_code, name, description, user_category, price, currency, duration_days, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		p.PlanCode, p.Name, p.Description, p.UserCategory, p.Price, p.Currency, p.DurationDays, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("plan code %s: %w", p.PlanCode, xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id int64) (*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`
	if inTx(ctx) {
		// Share-lock so the plan cannot be deactivated mid unit of work.
		query += ` FOR SHARE`
	}

	var p plan.Plan
	err := scanPlan(r.db.conn(ctx).QueryRow(ctx, query, id), &p)
	if isNoRows(err) {
		return nil, xerrors.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return &p, nil
}

func (r *PlanRepository) Update(ctx context.Context, p *plan.Plan) error {
	query := `
		UPDATE subscription_plans
		SET name = $1, description = $2, price = $3, duration_days = $4, updated_at = $5
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		p.Name, p.Description, p.Price, p.DurationDays, time.Now(), p.ID,
	).Scan(&p.UpdatedAt)
	if isNoRows(err) {
		return xerrors.ErrPlanNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE subscription_plans SET is_active = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.conn(ctx).Exec(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepository) List(ctx context.Context, filters *plan.PlanListFilters) ([]plan.Plan, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.UserCategory != nil {
		conditions = append(conditions, fmt.Sprintf("user_category = $%d", argPos))
		args = append(args, *filters.UserCategory)
		argPos++
	}

	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM subscription_plans WHERE %s", whereClause)
	if err := r.db.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count plans: %w", err)
	}

	page, pageSize := pagination.Normalize(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM subscription_plans
		WHERE %s
		ORDER BY user_category, price, id
		LIMIT $%d OFFSET $%d
	`, planColumns, whereClause, argPos, argPos+1)
	args = append(args, pageSize, pagination.Offset(page, pageSize))

	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []plan.Plan{}
	for rows.Next() {
		var p plan.Plan
		if err := scanPlan(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return plans, total, nil
}
