// Package memory provides in-memory repository implementations backing the
// unit tests and the -storage memory development mode. Counter updates take a
// per-entity lock so the atomicity contract matches the postgres adapter.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type slotRecord struct {
	mu   sync.Mutex
	slot domain.ScheduleSlot
}

type slotRepository struct {
	mu     sync.RWMutex
	slots  map[int]*slotRecord
	byKey  map[string]int
	nextID int
}

func NewSlotRepository() interfaces.SlotRepository {
	return &slotRepository{
		slots:  make(map[int]*slotRecord),
		byKey:  make(map[string]int),
		nextID: 1,
	}
}

func slotKey(mealID int, date time.Time, mealTime domain.MealTime) string {
	return fmt.Sprintf("%d|%s|%s", mealID, date.Format("2006-01-02"), mealTime)
}

func (r *slotRepository) Create(ctx context.Context, slot *domain.ScheduleSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey(slot.MealID, slot.Date, slot.MealTime)
	if _, exists := r.byKey[key]; exists {
		return domain.ErrDuplicateSlot
	}

	slot.ID = r.nextID
	r.nextID++
	r.slots[slot.ID] = &slotRecord{slot: *slot}
	r.byKey[key] = slot.ID
	return nil
}

func (r *slotRepository) GetByID(ctx context.Context, id int) (*domain.ScheduleSlot, error) {
	r.mu.RLock()
	rec, ok := r.slots[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSlotNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := rec.slot
	return &out, nil
}

func (r *slotRepository) Reserve(ctx context.Context, slotID, quantity int) (int, error) {
	r.mu.RLock()
	rec, ok := r.slots[slotID]
	r.mu.RUnlock()
	if !ok {
		return 0, domain.ErrSlotNotFound
	}

	// Check-and-increment under the slot's own lock. Other slots stay free.
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.slot.QuantityConsumed+quantity > rec.slot.QuantityAvailable {
		return 0, domain.ErrCapacityExceeded
	}
	rec.slot.QuantityConsumed += quantity
	return rec.slot.Remaining(), nil
}

func (r *slotRepository) Release(ctx context.Context, slotID, quantity int) (int, error) {
	r.mu.RLock()
	rec, ok := r.slots[slotID]
	r.mu.RUnlock()
	if !ok {
		return 0, domain.ErrSlotNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.slot.QuantityConsumed -= quantity
	if rec.slot.QuantityConsumed < 0 {
		rec.slot.QuantityConsumed = 0
	}
	return rec.slot.Remaining(), nil
}

func (r *slotRepository) ListByDate(ctx context.Context, date time.Time, mealTime *domain.MealTime) ([]*domain.ScheduleSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := domain.DateOnly(date)
	var out []*domain.ScheduleSlot
	for _, rec := range r.slots {
		rec.mu.Lock()
		slot := rec.slot
		rec.mu.Unlock()

		if !slot.Date.Equal(day) {
			continue
		}
		if mealTime != nil && slot.MealTime != *mealTime {
			continue
		}
		s := slot
		out = append(out, &s)
	}
	return out, nil
}

func (r *slotRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.slots[id]
	if !ok {
		return domain.ErrSlotNotFound
	}

	rec.mu.Lock()
	consumed := rec.slot.QuantityConsumed
	key := slotKey(rec.slot.MealID, rec.slot.Date, rec.slot.MealTime)
	rec.mu.Unlock()

	if consumed > 0 {
		return domain.ErrSlotInUse
	}

	delete(r.slots, id)
	delete(r.byKey, key)
	return nil
}
