package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type planRepository struct {
	db DB
}

func NewPlanRepository(db DB) interfaces.PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, plan *domain.BudgetPlan) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO budget_plans (plan_name, plan_type, start_date, end_date, total_budget, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		plan.Name, plan.Type, plan.StartDate, plan.EndDate,
		plan.TotalBudget, plan.Status, plan.CreatedBy, plan.CreatedAt,
	).Scan(&plan.ID)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	for i := range plan.Items {
		itemQuery := `
			INSERT INTO budget_plan_items (plan_id, meal_id, estimated_quantity, unit_cost, actual_quantity, actual_cost, notes)
			VALUES ($1, $2, $3, $4, 0, 0, $5)
			RETURNING id
		`
		err = tx.QueryRow(ctx, itemQuery,
			plan.ID, plan.Items[i].MealID, plan.Items[i].EstimatedQuantity,
			plan.Items[i].UnitCost, plan.Items[i].Notes,
		).Scan(&plan.Items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert plan item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *planRepository) GetByID(ctx context.Context, id int) (*domain.BudgetPlan, error) {
	query := `
		SELECT id, plan_name, plan_type, start_date, end_date, total_budget, status, created_by, created_at
		FROM budget_plans
		WHERE id = $1
	`
	var plan domain.BudgetPlan
	err := r.db.QueryRow(ctx, query, id).Scan(
		&plan.ID, &plan.Name, &plan.Type, &plan.StartDate, &plan.EndDate,
		&plan.TotalBudget, &plan.Status, &plan.CreatedBy, &plan.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	if err := r.loadItems(ctx, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) loadItems(ctx context.Context, plan *domain.BudgetPlan) error {
	query := `
		SELECT i.id, i.meal_id, m.name, i.estimated_quantity, i.unit_cost, i.actual_quantity, i.actual_cost, i.notes
		FROM budget_plan_items i
		JOIN meals m ON m.id = i.meal_id
		WHERE i.plan_id = $1
		ORDER BY i.id
	`
	rows, err := r.db.Query(ctx, query, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to load plan items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.BudgetPlanItem
		if err := rows.Scan(
			&item.ID, &item.MealID, &item.MealName, &item.EstimatedQuantity,
			&item.UnitCost, &item.ActualQuantity, &item.ActualCost, &item.Notes,
		); err != nil {
			return fmt.Errorf("failed to scan plan item: %w", err)
		}
		plan.Items = append(plan.Items, item)
	}
	return nil
}

func (r *planRepository) UpdateStatus(ctx context.Context, planID int, status domain.PlanStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE budget_plans SET status = $1 WHERE id = $2`, status, planID)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func (r *planRepository) AddActual(ctx context.Context, planID, mealID, quantity int, cost int64) error {
	// One guarded UPDATE serializes concurrent actuals on the item row and
	// re-checks plan status inside the same statement, so a transition racing
	// this call cannot let an actual slip into a closed plan.
	query := `
		UPDATE budget_plan_items i
		SET actual_quantity = GREATEST(i.actual_quantity + $3, 0),
		    actual_cost     = GREATEST(i.actual_cost + $4, 0)
		FROM budget_plans p
		WHERE i.plan_id = $1 AND i.meal_id = $2 AND p.id = i.plan_id AND p.status = 'active'
	`
	tag, err := r.db.Exec(ctx, query, planID, mealID, quantity, cost)
	if err != nil {
		return fmt.Errorf("failed to add actual: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// No row matched: work out which contract was violated.
	var status domain.PlanStatus
	err = r.db.QueryRow(ctx, `SELECT status FROM budget_plans WHERE id = $1`, planID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPlanNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check plan: %w", err)
	}
	if status != domain.PlanStatusActive {
		return domain.ErrPlanNotActive
	}
	return domain.ErrItemNotFound
}

func (r *planRepository) List(ctx context.Context, status *domain.PlanStatus, planType *domain.PlanType) ([]*domain.BudgetPlan, error) {
	query := `SELECT id FROM budget_plans WHERE 1=1`
	var args []any
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if planType != nil {
		args = append(args, *planType)
		query += fmt.Sprintf(" AND plan_type = $%d", len(args))
	}
	query += ` ORDER BY id`
	return r.listByIDs(ctx, query, args...)
}

func (r *planRepository) ListActiveCovering(ctx context.Context, date time.Time) ([]*domain.BudgetPlan, error) {
	query := `
		SELECT id FROM budget_plans
		WHERE status = 'active' AND start_date <= $1 AND end_date >= $1
		ORDER BY id
	`
	return r.listByIDs(ctx, query, domain.DateOnly(date))
}

func (r *planRepository) ListIntersecting(ctx context.Context, from, to time.Time) ([]*domain.BudgetPlan, error) {
	query := `
		SELECT id FROM budget_plans
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY id
	`
	return r.listByIDs(ctx, query, domain.DateOnly(from), domain.DateOnly(to))
}

func (r *planRepository) ListExpired(ctx context.Context, asOf time.Time) ([]*domain.BudgetPlan, error) {
	query := `
		SELECT id FROM budget_plans
		WHERE status = 'active' AND end_date < $1
		ORDER BY id
	`
	return r.listByIDs(ctx, query, domain.DateOnly(asOf))
}

func (r *planRepository) listByIDs(ctx context.Context, query string, args ...any) ([]*domain.BudgetPlan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan plan id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	plans := make([]*domain.BudgetPlan, 0, len(ids))
	for _, id := range ids {
		plan, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
