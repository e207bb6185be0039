package interfaces

import (
	"context"
	"time"

	"github.com/campusmess/emess/internal/domain"
)

// Repository contracts (Adapter/Postgres, Adapter/Memory)

// SlotRepository owns schedule slot state. Reserve and Release are the
// serialization points for slot counters: every implementation must perform
// the check-and-increment as a single indivisible step per slot (guarded
// UPDATE in postgres, per-slot mutex in memory).
type SlotRepository interface {
	// Create persists a new slot; returns domain.ErrDuplicateSlot when a slot
	// with the same (meal, date, meal time) identity already exists.
	Create(ctx context.Context, slot *domain.ScheduleSlot) error
	GetByID(ctx context.Context, id int) (*domain.ScheduleSlot, error)

	// Reserve atomically increments consumption by quantity and returns the
	// new remaining capacity. All-or-nothing: domain.ErrCapacityExceeded when
	// the quantity does not fit.
	Reserve(ctx context.Context, slotID, quantity int) (remaining int, err error)

	// Release decrements consumption by quantity, floored at zero, and
	// returns the new remaining capacity.
	Release(ctx context.Context, slotID, quantity int) (remaining int, err error)

	ListByDate(ctx context.Context, date time.Time, mealTime *domain.MealTime) ([]*domain.ScheduleSlot, error)

	// Delete removes a slot; returns domain.ErrSlotInUse once any consumption
	// has been recorded against it.
	Delete(ctx context.Context, id int) error
}

// PlanRepository owns budget plan state. AddActual is serialized per
// (plan, meal) pair by every implementation.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.BudgetPlan) error
	GetByID(ctx context.Context, id int) (*domain.BudgetPlan, error)
	UpdateStatus(ctx context.Context, planID int, status domain.PlanStatus) error

	// AddActual accumulates quantity and cost onto the matching planned item.
	// Negative deltas compensate cancellations; actuals are floored at zero.
	// Returns domain.ErrPlanNotActive unless the plan is active and
	// domain.ErrItemNotFound when the meal was not planned.
	AddActual(ctx context.Context, planID, mealID, quantity int, cost int64) error

	// List returns plans, optionally filtered by status and plan type.
	List(ctx context.Context, status *domain.PlanStatus, planType *domain.PlanType) ([]*domain.BudgetPlan, error)

	// ListActiveCovering returns active plans whose window contains the date.
	ListActiveCovering(ctx context.Context, date time.Time) ([]*domain.BudgetPlan, error)

	// ListIntersecting returns plans whose window overlaps [from, to].
	ListIntersecting(ctx context.Context, from, to time.Time) ([]*domain.BudgetPlan, error)

	// ListExpired returns active plans whose end date precedes asOf.
	ListExpired(ctx context.Context, asOf time.Time) ([]*domain.BudgetPlan, error)
}

// CatalogRepository is the read-only view of the externally managed meal catalog.
type CatalogRepository interface {
	// GetMeal returns domain.ErrMealNotFound for unknown or inactive meals.
	GetMeal(ctx context.Context, id int) (*domain.Meal, error)
	ListCategories(ctx context.Context) ([]*domain.MealCategory, error)
}

// OrderRepository stores the raw fulfillment history the reporting engine
// reads. Append-only; cancellations compensate at the ledgers, not here.
type OrderRepository interface {
	Record(ctx context.Context, order *domain.FulfilledOrder) error
	ListFulfilledSince(ctx context.Context, since time.Time) ([]*domain.FulfilledOrder, error)
}

// EventRepository tracks processed fulfillment event IDs so that redelivered
// messages are acked without double-counting. Handlers check at entry and
// record only after the ledger mutations succeed, so a rejected or failed
// event never burns its ID and stays replayable from the DLQ.
type EventRepository interface {
	// IsProcessed reports whether the event ID has been recorded.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// MarkProcessed records the event ID; returns false when the ID was
	// already recorded.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}
