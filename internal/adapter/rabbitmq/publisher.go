package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iho/gobalance/internal/domain"
)

// amqpChannel is the slice of *amqp.Channel the publisher needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher implements usecase.EventPublisher on top of a RabbitMQ topic
// exchange. The routing key of each message is the event type, so consumers
// can bind to a single event kind or to a wildcard.
type Publisher struct {
	channel  amqpChannel
	exchange string
	logger   zerolog.Logger
}

// NewPublisher creates a new Publisher on an open channel. The exchange must
// already be declared.
func NewPublisher(channel amqpChannel, exchange string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}
}

// envelope is the wire shape of a published event.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Publish sends one event. It does not retry; callers decide whether a
// failed publish matters.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(envelope{Event: event.Type, Data: event.Payload})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	messageID := ulid.Make().String()

	err = p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Type:         event.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}

	p.logger.Debug().
		Str("event_type", event.Type).
		Str("message_id", messageID).
		Msg("event published")

	return nil
}
