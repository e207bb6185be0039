// Package scheduling implements the scheduling ledger: admission control
// over finite per-slot meal capacity.
package scheduling

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type Service struct {
	slots     interfaces.SlotRepository
	catalog   interfaces.CatalogRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
}

func NewService(slots interfaces.SlotRepository, catalog interfaces.CatalogRepository, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		slots:     slots,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateSlot schedules a meal for one date and meal time with a fixed
// capacity. The meal must exist and be active in the catalog.
func (s *Service) CreateSlot(ctx context.Context, cmd interfaces.CreateSlotCommand) (*domain.ScheduleSlot, error) {
	meal, err := s.catalog.GetMeal(ctx, cmd.MealID)
	if err != nil {
		return nil, err
	}

	slot, err := domain.NewScheduleSlot(cmd.MealID, cmd.Date, domain.MealTime(cmd.MealTime), cmd.QuantityAvailable)
	if err != nil {
		s.logger.Error("slot_validation_failed", "Slot validation failed", "", nil, err)
		return nil, err
	}
	slot.MealName = meal.Name
	slot.Price = meal.Price
	slot.CategoryName = meal.CategoryName

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Debug("slot_created", "Schedule slot created", "", map[string]interface{}{
		"slot_id":   slot.ID,
		"meal_id":   slot.MealID,
		"date":      slot.Date.Format("2006-01-02"),
		"meal_time": string(slot.MealTime),
		"capacity":  slot.QuantityAvailable,
	})

	s.publishSlotEvent(ctx, "slot_created", slot.ID, slot.Remaining())
	return slot, nil
}

// GetSlot returns one slot annotated with remaining capacity.
func (s *Service) GetSlot(ctx context.Context, slotID int) (*interfaces.SlotView, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	return &interfaces.SlotView{Slot: slot, Remaining: slot.Remaining()}, nil
}

// Reserve atomically consumes capacity on a slot. All-or-nothing: the
// repository performs the check-and-increment as one serialized step per
// slot, so concurrent reservations never overbook.
func (s *Service) Reserve(ctx context.Context, slotID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	remaining, err := s.slots.Reserve(ctx, slotID, quantity)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("slot_reserved", "Capacity reserved", "", map[string]interface{}{
		"slot_id":   slotID,
		"quantity":  quantity,
		"remaining": remaining,
	})

	s.publishSlotEvent(ctx, "slot_reserved", slotID, remaining)
	return remaining, nil
}

// Release compensates a cancelled order. Consumption is floored at zero.
func (s *Service) Release(ctx context.Context, slotID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	remaining, err := s.slots.Release(ctx, slotID, quantity)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("slot_released", "Capacity released", "", map[string]interface{}{
		"slot_id":   slotID,
		"quantity":  quantity,
		"remaining": remaining,
	})

	s.publishSlotEvent(ctx, "slot_released", slotID, remaining)
	return remaining, nil
}

// DeleteSlot removes an unused slot. Slots with recorded consumption are
// kept for historical integrity.
func (s *Service) DeleteSlot(ctx context.Context, slotID int) error {
	if err := s.slots.Delete(ctx, slotID); err != nil {
		return err
	}
	s.logger.Debug("slot_deleted", "Schedule slot deleted", "", map[string]interface{}{"slot_id": slotID})
	return nil
}

// Query yields the slots for a date, each annotated with remaining capacity.
// The sequence is restartable: each range re-reads the ledger, so a second
// iteration observes current state.
func (s *Service) Query(ctx context.Context, date time.Time, mealTime *domain.MealTime) iter.Seq2[*interfaces.SlotView, error] {
	return func(yield func(*interfaces.SlotView, error) bool) {
		slots, err := s.slots.ListByDate(ctx, date, mealTime)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list slots: %w", err))
			return
		}
		for _, slot := range slots {
			view := &interfaces.SlotView{Slot: slot, Remaining: slot.Remaining()}
			if !yield(view, nil) {
				return
			}
		}
	}
}

// Ledger events are fire-and-forget; a broker hiccup must not fail the
// mutation that already committed.
func (s *Service) publishSlotEvent(ctx context.Context, event string, slotID, remaining int) {
	if s.publisher == nil {
		return
	}
	msg := interfaces.LedgerEventMessage{
		Event:     event,
		SlotID:    &slotID,
		Remaining: &remaining,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
		s.logger.Warn("event_publish_failed", "Failed to publish ledger event", "", map[string]interface{}{
			"event":   event,
			"slot_id": slotID,
		})
	}
}
