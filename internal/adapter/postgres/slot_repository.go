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

type slotRepository struct {
	db DB
}

func NewSlotRepository(db DB) interfaces.SlotRepository {
	return &slotRepository{db: db}
}

func (r *slotRepository) Create(ctx context.Context, slot *domain.ScheduleSlot) error {
	// The unique index on (meal_id, schedule_date, meal_time) enforces slot
	// identity; ON CONFLICT turns a race between two creators into a clean
	// duplicate error for the loser.
	query := `
		INSERT INTO schedule_slots (meal_id, schedule_date, meal_time, quantity_available, quantity_consumed, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (meal_id, schedule_date, meal_time) DO NOTHING
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		slot.MealID, slot.Date, slot.MealTime, slot.QuantityAvailable, slot.CreatedAt,
	).Scan(&slot.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDuplicateSlot
	}
	if err != nil {
		return fmt.Errorf("failed to insert slot: %w", err)
	}
	return nil
}

func (r *slotRepository) GetByID(ctx context.Context, id int) (*domain.ScheduleSlot, error) {
	query := `
		SELECT s.id, s.meal_id, s.schedule_date, s.meal_time, s.quantity_available, s.quantity_consumed, s.created_at,
		       m.name, m.price, c.name
		FROM schedule_slots s
		JOIN meals m ON m.id = s.meal_id
		JOIN meal_categories c ON c.id = m.category_id
		WHERE s.id = $1
	`
	var slot domain.ScheduleSlot
	err := r.db.QueryRow(ctx, query, id).Scan(
		&slot.ID, &slot.MealID, &slot.Date, &slot.MealTime,
		&slot.QuantityAvailable, &slot.QuantityConsumed, &slot.CreatedAt,
		&slot.MealName, &slot.Price, &slot.CategoryName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	return &slot, nil
}

func (r *slotRepository) Reserve(ctx context.Context, slotID, quantity int) (int, error) {
	// Single guarded UPDATE: the capacity check and the increment commit
	// together, so concurrent reservations against one slot serialize on the
	// row and can never overbook.
	query := `
		UPDATE schedule_slots
		SET quantity_consumed = quantity_consumed + $2
		WHERE id = $1 AND quantity_consumed + $2 <= quantity_available
		RETURNING quantity_available - quantity_consumed
	`
	var remaining int
	err := r.db.QueryRow(ctx, query, slotID, quantity).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.rejectReason(ctx, slotID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to reserve capacity: %w", err)
	}
	return remaining, nil
}

// rejectReason distinguishes a missing slot from an exhausted one after a
// guarded UPDATE matched no row.
func (r *slotRepository) rejectReason(ctx context.Context, slotID int) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schedule_slots WHERE id = $1)`, slotID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if !exists {
		return domain.ErrSlotNotFound
	}
	return domain.ErrCapacityExceeded
}

func (r *slotRepository) Release(ctx context.Context, slotID, quantity int) (int, error) {
	query := `
		UPDATE schedule_slots
		SET quantity_consumed = GREATEST(quantity_consumed - $2, 0)
		WHERE id = $1
		RETURNING quantity_available - quantity_consumed
	`
	var remaining int
	err := r.db.QueryRow(ctx, query, slotID, quantity).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrSlotNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to release capacity: %w", err)
	}
	return remaining, nil
}

func (r *slotRepository) ListByDate(ctx context.Context, date time.Time, mealTime *domain.MealTime) ([]*domain.ScheduleSlot, error) {
	query := `
		SELECT s.id, s.meal_id, s.schedule_date, s.meal_time, s.quantity_available, s.quantity_consumed, s.created_at,
		       m.name, m.price, c.name
		FROM schedule_slots s
		JOIN meals m ON m.id = s.meal_id
		JOIN meal_categories c ON c.id = m.category_id
		WHERE s.schedule_date = $1
	`
	args := []any{domain.DateOnly(date)}
	if mealTime != nil {
		query += ` AND s.meal_time = $2`
		args = append(args, *mealTime)
	}
	query += ` ORDER BY s.meal_time, m.name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []*domain.ScheduleSlot
	for rows.Next() {
		var slot domain.ScheduleSlot
		if err := rows.Scan(
			&slot.ID, &slot.MealID, &slot.Date, &slot.MealTime,
			&slot.QuantityAvailable, &slot.QuantityConsumed, &slot.CreatedAt,
			&slot.MealName, &slot.Price, &slot.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}
	return slots, nil
}

func (r *slotRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schedule_slots WHERE id = $1 AND quantity_consumed = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schedule_slots WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if exists {
		return domain.ErrSlotInUse
	}
	return domain.ErrSlotNotFound
}
