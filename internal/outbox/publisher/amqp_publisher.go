// Package publisher delivers outbox events to a message broker.
package publisher

import (
	"context"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	apperrors "github.com/allisson/users/internal/errors"
	"github.com/allisson/users/internal/outbox/domain"
)

const defaultPublishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel used by AMQPPublisher.
type Channel interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

// AMQPPublisher publishes outbox events to a topic exchange using the event type as routing key.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewAMQPPublisher dials the broker, opens a channel and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, apperrors.Wrap(err, "failed to open rabbitmq channel")
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, apperrors.Wrapf(err, "failed to declare exchange %s", exchange)
	}

	publisher := NewAMQPPublisherWithChannel(ch, exchange, logger)
	publisher.conn = conn
	return publisher, nil
}

// NewAMQPPublisherWithChannel creates a publisher on top of an already opened channel.
func NewAMQPPublisherWithChannel(ch Channel, exchange string, logger *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		timeout:  defaultPublishTimeout,
		logger:   logger,
	}
}

// Process publishes the event as a persistent JSON message.
func (p *AMQPPublisher) Process(ctx context.Context, event *domain.OutboxEvent) error {
	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.ch.PublishWithContext(
		publishCtx,
		p.exchange,
		event.EventType, // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Type:         event.EventType,
			Timestamp:    event.CreatedAt,
			Body:         []byte(event.Payload),
		},
	)
	if err != nil {
		return apperrors.Wrapf(err, "failed to publish event %s", event.ID)
	}

	if p.logger != nil {
		p.logger.DebugContext(ctx, "event published to broker",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
			slog.String("exchange", p.exchange),
		)
	}
	return nil
}

// Close closes the channel and then the connection.
func (p *AMQPPublisher) Close() error {
	if p == nil {
		return nil
	}

	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil && err == nil {
			err = connErr
		}
	}
	return err
}
