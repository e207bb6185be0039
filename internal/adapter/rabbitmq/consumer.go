package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/campusmess/emess/internal/interfaces"
)

type consumer struct {
	conn     Connection
	prefetch int
}

func NewConsumer(conn Connection, prefetch int) interfaces.MessageConsumer {
	return &consumer{conn: conn, prefetch: prefetch}
}

// ConsumeFulfillments delivers order fulfillment events to the handler,
// reconnecting on channel loss. Handler failures nack to the DLQ: the ledger
// rejected the event (capacity exhausted, unknown slot) and a blind retry
// would fail the same way.
func (c *consumer) ConsumeFulfillments(ctx context.Context, handler interfaces.FulfillmentHandler) error {
	return c.consumeLoop(ctx, "fulfillments", func(cctx context.Context) error {
		return c.consumeQueue(cctx, FulfillmentQueue, "ledger.fulfilled.#", handler)
	})
}

// ConsumeCancellations delivers order cancellation events the same way.
func (c *consumer) ConsumeCancellations(ctx context.Context, handler interfaces.CancellationHandler) error {
	return c.consumeLoop(ctx, "cancellations", func(cctx context.Context) error {
		return c.consumeQueue(cctx, CancellationQueue, "ledger.cancelled.#", interfaces.FulfillmentHandler(handler))
	})
}

// ConsumeLedgerEvents subscribes an exclusive queue to the fanout exchange.
// Handler errors are ignored: ledger events are best-effort hints.
func (c *consumer) ConsumeLedgerEvents(ctx context.Context, handler interfaces.LedgerEventHandler) error {
	return c.consumeLoop(ctx, "ledger-events", func(cctx context.Context) error {
		return c.consumeFanout(cctx, handler)
	})
}

func (c *consumer) consumeLoop(ctx context.Context, name string, run func(context.Context) error) error {
	for {
		err := run(ctx)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		log.Printf("%s consumer disconnected: %v. Reconnecting in 5 seconds...", name, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *consumer) consumeQueue(ctx context.Context, queue, routingKey string, handler interfaces.FulfillmentHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := c.setupFulfillmentInfrastructure(ch, queue, routingKey); err != nil {
		return err
	}

	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				msg.Nack(false, false)
			} else {
				msg.Ack(false)
			}
		}
	}
}

func (c *consumer) consumeFanout(ctx context.Context, handler interfaces.LedgerEventHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(LedgerEventExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", LedgerEventExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			_ = handler(ctx, msg.Body)
		}
	}
}

func (c *consumer) setupFulfillmentInfrastructure(ch Channel, queue, routingKey string) error {
	if err := ch.ExchangeDeclare(FulfillmentExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare fulfillment exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(DLQExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(DLQQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(DLQQueue, "#", DLQExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": DLQExchange,
	}

	q, err := ch.QueueDeclare(queue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	if err := ch.QueueBind(q.Name, routingKey, FulfillmentExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}

	return nil
}
