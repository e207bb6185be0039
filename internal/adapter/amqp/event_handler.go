package amqp

import (
	"context"
	"encoding/json"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/interfaces"
)

// LedgerEventHandler logs ledger state-change notifications. The
// event-subscriber mode runs this as a stand-in for the real dashboard
// push channel, which lives in the excluded presentation layer.
type LedgerEventHandler struct {
	logger logger.Logger
}

func NewLedgerEventHandler(logger logger.Logger) *LedgerEventHandler {
	return &LedgerEventHandler{logger: logger}
}

func (h *LedgerEventHandler) HandleLedgerEvent(ctx context.Context, body []byte) error {
	var msg interfaces.LedgerEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse ledger event", "", nil, err)
		return err
	}

	details := map[string]interface{}{"event": msg.Event}
	if msg.SlotID != nil {
		details["slot_id"] = *msg.SlotID
	}
	if msg.Remaining != nil {
		details["remaining"] = *msg.Remaining
	}
	if msg.PlanID != nil {
		details["plan_id"] = *msg.PlanID
	}
	if msg.Status != nil {
		details["status"] = string(*msg.Status)
	}

	h.logger.Info("ledger_event", "Ledger state changed", "", details)
	return nil
}
