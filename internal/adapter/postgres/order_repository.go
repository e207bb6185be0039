package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Record(ctx context.Context, order *domain.FulfilledOrder) error {
	query := `
		INSERT INTO fulfilled_orders (event_id, meal_id, meal_time, student_id, quantity, amount, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		order.EventID, order.MealID, order.MealTime, order.StudentID,
		order.Quantity, order.Amount, domain.DateOnly(order.Date),
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to record order: %w", err)
	}
	return nil
}

func (r *orderRepository) ListFulfilledSince(ctx context.Context, since time.Time) ([]*domain.FulfilledOrder, error) {
	query := `
		SELECT o.id, o.event_id, o.meal_id, m.name, c.name, o.meal_time, o.student_id, o.quantity, o.amount, o.order_date
		FROM fulfilled_orders o
		JOIN meals m ON m.id = o.meal_id
		JOIN meal_categories c ON c.id = m.category_id
		WHERE o.order_date >= $1
		ORDER BY o.order_date, o.id
	`
	rows, err := r.db.Query(ctx, query, domain.DateOnly(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.FulfilledOrder
	for rows.Next() {
		var o domain.FulfilledOrder
		if err := rows.Scan(
			&o.ID, &o.EventID, &o.MealID, &o.MealName, &o.Category,
			&o.MealTime, &o.StudentID, &o.Quantity, &o.Amount, &o.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	return orders, nil
}
