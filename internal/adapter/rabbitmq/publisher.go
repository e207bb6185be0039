package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/campusmess/emess/internal/interfaces"
)

// Exchange and queue names for the ledger messaging topology.
const (
	FulfillmentExchange = "fulfillment_topic"
	LedgerEventExchange = "ledger_events_fanout"

	FulfillmentQueue  = "ledger_fulfillments"
	CancellationQueue = "ledger_cancellations"

	DLQExchange = "fulfillment_dlq"
	DLQQueue    = "ledger_fulfillments_dlq"
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.MessagePublisher {
	return &publisher{conn: conn}
}

// PublishLedgerEvent fans a state-change notification out to dashboard
// subscribers. Non-persistent: these are live-update hints, not records.
func (p *publisher) PublishLedgerEvent(ctx context.Context, msg interfaces.LedgerEventMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(LedgerEventExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.Publish(LedgerEventExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
