package interfaces

import (
	"context"
	"time"

	"github.com/campusmess/emess/internal/domain"
)

// RabbitMQ messages

// FulfillmentMessage is the order fulfillment event published by the external
// ordering subsystem. EventID is the idempotency key: a redelivered event
// must not double-count reserve or recordActual.
type FulfillmentMessage struct {
	EventID        string    `json:"event_id"`
	MealID         int       `json:"meal_id"`
	ScheduleSlotID int       `json:"schedule_slot_id"`
	StudentID      int       `json:"student_id"`
	Quantity       int       `json:"quantity"`
	UnitCost       int64     `json:"unit_cost"`
	Timestamp      time.Time `json:"timestamp"`
}

// CancellationMessage compensates a previously fulfilled order.
type CancellationMessage struct {
	EventID        string    `json:"event_id"`
	MealID         int       `json:"meal_id"`
	ScheduleSlotID int       `json:"schedule_slot_id"`
	StudentID      int       `json:"student_id"`
	Quantity       int       `json:"quantity"`
	UnitCost       int64     `json:"unit_cost"`
	Timestamp      time.Time `json:"timestamp"`
}

// LedgerEventMessage is a compact state-change notification fanned out to
// dashboard subscribers. Delivery is fire-and-forget.
type LedgerEventMessage struct {
	Event     string             `json:"event"`
	SlotID    *int               `json:"slot_id,omitempty"`
	PlanID    *int               `json:"plan_id,omitempty"`
	Remaining *int               `json:"remaining,omitempty"`
	Status    *domain.PlanStatus `json:"status,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Messaging contracts (Adapter/RabbitMQ)

type MessagePublisher interface {
	PublishLedgerEvent(ctx context.Context, msg LedgerEventMessage) error
}

type MessageConsumer interface {
	ConsumeFulfillments(ctx context.Context, handler FulfillmentHandler) error
	ConsumeCancellations(ctx context.Context, handler CancellationHandler) error
	ConsumeLedgerEvents(ctx context.Context, handler LedgerEventHandler) error
}

type (
	FulfillmentHandler  func(ctx context.Context, body []byte) error
	CancellationHandler func(ctx context.Context, body []byte) error
	LedgerEventHandler  func(ctx context.Context, body []byte) error
)
