// Package amqp decodes ledger-bound messages and dispatches them to the
// application services.
package amqp

import (
	"context"
	"encoding/json"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

// FulfillmentHandler applies order fulfillment events to both ledgers: the
// slot reservation first, then the budget actuals, then the raw order record
// the reporting engine reads.
type FulfillmentHandler struct {
	scheduling interfaces.SchedulingService
	budget     interfaces.BudgetService
	catalog    interfaces.CatalogRepository
	orders     interfaces.OrderRepository
	events     interfaces.EventRepository
	logger     logger.Logger
}

func NewFulfillmentHandler(
	scheduling interfaces.SchedulingService,
	budget interfaces.BudgetService,
	catalog interfaces.CatalogRepository,
	orders interfaces.OrderRepository,
	events interfaces.EventRepository,
	logger logger.Logger,
) *FulfillmentHandler {
	return &FulfillmentHandler{
		scheduling: scheduling,
		budget:     budget,
		catalog:    catalog,
		orders:     orders,
		events:     events,
		logger:     logger,
	}
}

func (h *FulfillmentHandler) HandleFulfillment(ctx context.Context, body []byte) error {
	var msg interfaces.FulfillmentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse fulfillment message", "", nil, err)
		return err
	}

	if msg.Quantity <= 0 {
		h.logger.Error("invalid_fulfillment", "Fulfillment quantity must be positive", msg.EventID, nil, domain.ErrInvalidQuantity)
		return domain.ErrInvalidQuantity
	}

	// Dedupe check only; the ID is recorded after the ledger mutations
	// succeed, so a rejected event stays replayable from the DLQ.
	processed, err := h.events.IsProcessed(ctx, msg.EventID)
	if err != nil {
		return err
	}
	if processed {
		h.logger.Debug("event_duplicate", "Fulfillment event already processed", msg.EventID, nil)
		return nil
	}

	view, err := h.scheduling.GetSlot(ctx, msg.ScheduleSlotID)
	if err != nil {
		h.logger.Error("slot_lookup_failed", "Fulfillment references unknown slot", msg.EventID, map[string]interface{}{
			"slot_id": msg.ScheduleSlotID,
		}, err)
		return err
	}
	slot := view.Slot

	if _, err := h.scheduling.Reserve(ctx, msg.ScheduleSlotID, msg.Quantity); err != nil {
		h.logger.Error("reserve_failed", "Failed to reserve slot capacity", msg.EventID, map[string]interface{}{
			"slot_id":  msg.ScheduleSlotID,
			"quantity": msg.Quantity,
		}, err)
		return err
	}

	cost := int64(msg.Quantity) * msg.UnitCost

	// A missing plan item is a scope boundary, not a failure: the budget
	// ledger only tracks planned meals.
	if _, err := h.budget.ApplyFulfillment(ctx, slot.Date, msg.MealID, msg.Quantity, cost); err != nil {
		h.logger.Error("actual_record_failed", "Failed to record actual spend", msg.EventID, map[string]interface{}{
			"meal_id": msg.MealID,
		}, err)
	}

	order := &domain.FulfilledOrder{
		EventID:   msg.EventID,
		MealID:    msg.MealID,
		MealTime:  slot.MealTime,
		StudentID: msg.StudentID,
		Quantity:  msg.Quantity,
		Amount:    cost,
		Date:      slot.Date,
	}
	if meal, err := h.catalog.GetMeal(ctx, msg.MealID); err == nil {
		order.MealName = meal.Name
		order.Category = meal.CategoryName
	}
	if err := h.orders.Record(ctx, order); err != nil {
		h.logger.Error("order_record_failed", "Failed to record fulfilled order", msg.EventID, nil, err)
	}

	// The reservation is committed; a failure here leaves the event eligible
	// for one redelivery-side re-apply, which is the at-least-once trade.
	if _, err := h.events.MarkProcessed(ctx, msg.EventID); err != nil {
		h.logger.Warn("event_mark_failed", "Failed to record processed event", msg.EventID, nil)
	}

	h.logger.Debug("fulfillment_applied", "Fulfillment event applied to ledgers", msg.EventID, map[string]interface{}{
		"slot_id":  msg.ScheduleSlotID,
		"meal_id":  msg.MealID,
		"quantity": msg.Quantity,
	})
	return nil
}
