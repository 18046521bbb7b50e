package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/corebooks/core/internal/platform/logging"
)

// AMQP is a durable-queue Broker backed by RabbitMQ, grounded in the
// teacher's common/mrabbitmq connection-hub shape (dial, channel, declare,
// reconnect-on-demand).
type AMQP struct {
	url    string
	logger logging.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQP builds an AMQP broker dialing url lazily on first use.
func NewAMQP(url string, logger logging.Logger) *AMQP {
	if logger == nil {
		logger = logging.NewNoop()
	}

	return &AMQP{url: url, logger: logger}
}

func (b *AMQP) channel() (*amqp.Channel, error) {
	if b.ch != nil && !b.ch.IsClosed() {
		return b.ch, nil
	}

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	b.conn = conn
	b.ch = ch

	return ch, nil
}

func (b *AMQP) declare(ch *amqp.Channel, subject string) (amqp.Queue, error) {
	return ch.QueueDeclare(subject, true, false, false, false, nil)
}

// Publish sends msg to a durable queue named after msg.Subject.
func (b *AMQP) Publish(ctx context.Context, msg Message) error {
	ch, err := b.channel()
	if err != nil {
		return err
	}

	if _, err := b.declare(ch, msg.Subject); err != nil {
		return fmt.Errorf("declare queue %s: %w", msg.Subject, err)
	}

	return ch.PublishWithContext(ctx, "", msg.Subject, false, false, amqp.Publishing{
		MessageId:    msg.ID,
		Body:         msg.Body,
		DeliveryMode: amqp.Persistent,
	})
}

// Consume acks each delivery only after handler succeeds, so a crash or
// handler error leaves the message for redelivery.
func (b *AMQP) Consume(ctx context.Context, subject string, handler Handler) error {
	ch, err := b.channel()
	if err != nil {
		return err
	}

	if _, err := b.declare(ch, subject); err != nil {
		return fmt.Errorf("declare queue %s: %w", subject, err)
	}

	deliveries, err := ch.Consume(subject, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", subject, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("broker: delivery channel for %s closed", subject)
			}

			msg := Message{ID: d.MessageId, Subject: subject, Body: d.Body}

			if err := handler(ctx, msg); err != nil {
				b.logger.Errorf("broker: handler failed for %s: %v", subject, err)
				_ = d.Nack(false, true)

				continue
			}

			_ = d.Ack(false)
		}
	}
}

// Close releases the channel and connection.
func (b *AMQP) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}

	if b.conn != nil {
		return b.conn.Close()
	}

	return nil
}
