package amqp

import (
	"context"
	"encoding/json"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

// CancellationHandler compensates cancelled orders: capacity is released on
// the slot and the budget actuals are wound back. The raw order history is
// left alone; it records what was fulfilled, not what stood afterwards.
type CancellationHandler struct {
	scheduling interfaces.SchedulingService
	budget     interfaces.BudgetService
	events     interfaces.EventRepository
	logger     logger.Logger
}

func NewCancellationHandler(
	scheduling interfaces.SchedulingService,
	budget interfaces.BudgetService,
	events interfaces.EventRepository,
	logger logger.Logger,
) *CancellationHandler {
	return &CancellationHandler{
		scheduling: scheduling,
		budget:     budget,
		events:     events,
		logger:     logger,
	}
}

func (h *CancellationHandler) HandleCancellation(ctx context.Context, body []byte) error {
	var msg interfaces.CancellationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse cancellation message", "", nil, err)
		return err
	}

	if msg.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	// Dedupe check only; the ID is recorded after the ledger mutations
	// succeed, so a failed event stays replayable from the DLQ.
	processed, err := h.events.IsProcessed(ctx, msg.EventID)
	if err != nil {
		return err
	}
	if processed {
		h.logger.Debug("event_duplicate", "Cancellation event already processed", msg.EventID, nil)
		return nil
	}

	view, err := h.scheduling.GetSlot(ctx, msg.ScheduleSlotID)
	if err != nil {
		h.logger.Error("slot_lookup_failed", "Cancellation references unknown slot", msg.EventID, map[string]interface{}{
			"slot_id": msg.ScheduleSlotID,
		}, err)
		return err
	}

	if _, err := h.scheduling.Release(ctx, msg.ScheduleSlotID, msg.Quantity); err != nil {
		h.logger.Error("release_failed", "Failed to release slot capacity", msg.EventID, map[string]interface{}{
			"slot_id": msg.ScheduleSlotID,
		}, err)
		return err
	}

	cost := int64(msg.Quantity) * msg.UnitCost
	if _, err := h.budget.ApplyCancellation(ctx, view.Slot.Date, msg.MealID, msg.Quantity, cost); err != nil {
		h.logger.Error("actual_unwind_failed", "Failed to unwind actual spend", msg.EventID, map[string]interface{}{
			"meal_id": msg.MealID,
		}, err)
	}

	if _, err := h.events.MarkProcessed(ctx, msg.EventID); err != nil {
		h.logger.Warn("event_mark_failed", "Failed to record processed event", msg.EventID, nil)
	}

	h.logger.Debug("cancellation_applied", "Cancellation event applied to ledgers", msg.EventID, map[string]interface{}{
		"slot_id":  msg.ScheduleSlotID,
		"quantity": msg.Quantity,
	})
	return nil
}
