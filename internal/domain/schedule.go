package domain

import "time"

// ScheduleSlot is one meal offered on one calendar date at one meal time,
// with a finite capacity. Identity is (meal, date, meal time); at most one
// slot may exist per identity.
//
// Invariant at every committed state: 0 <= QuantityConsumed <= QuantityAvailable.
type ScheduleSlot struct {
	ID                int
	MealID            int
	Date              time.Time
	MealTime          MealTime
	QuantityAvailable int
	QuantityConsumed  int
	CreatedAt         time.Time

	// Denormalized catalog fields, hydrated by repository queries.
	MealName     string
	Price        int64
	CategoryName string
}

// NewScheduleSlot creates a slot with business validation applied.
// A capacity of zero is valid: the meal is withdrawn for that slot and every
// reservation is rejected.
func NewScheduleSlot(mealID int, date time.Time, mealTime MealTime, quantityAvailable int) (*ScheduleSlot, error) {
	if !mealTime.Valid() {
		return nil, ErrInvalidMealTime
	}
	if quantityAvailable < 0 {
		return nil, ErrInvalidCapacity
	}

	return &ScheduleSlot{
		MealID:            mealID,
		Date:              DateOnly(date),
		MealTime:          mealTime,
		QuantityAvailable: quantityAvailable,
		QuantityConsumed:  0,
		CreatedAt:         time.Now(),
	}, nil
}

// Remaining returns the capacity still open for reservation.
func (s *ScheduleSlot) Remaining() int {
	return s.QuantityAvailable - s.QuantityConsumed
}

// CanReserve reports whether a reservation of the given quantity fits the
// remaining capacity. The answer is advisory: the authoritative check is the
// repository's atomic check-and-increment.
func (s *ScheduleSlot) CanReserve(quantity int) bool {
	return quantity > 0 && s.QuantityConsumed+quantity <= s.QuantityAvailable
}

// DateOnly normalizes t to midnight UTC. Slot and plan dates are calendar
// dates without time of day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
