package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
)

// ExchangeName is the topic exchange user and post events are published to.
const ExchangeName = "events"

// Publisher publishes lifecycle events to the exchange, routed by event type.
// An AMQP channel is not safe for concurrent publishing, so calls are serialized.
type Publisher struct {
	mu      sync.Mutex
	channel *amqp.Channel
}

// NewPublisher opens a channel and declares the topic exchange.
func NewPublisher(conn *Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := declareExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{channel: ch}, nil
}

// Publish sends event with its type as the routing key.
func (p *Publisher) Publish(ctx context.Context, event models.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.DebugContext(ctx, "publishing event",
		"routing_key", event.EventType, "correlation_id", event.CorrelationID)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(
		ctx,
		ExchangeName,
		string(event.EventType),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: event.CorrelationID,
			MessageId:     event.EventID,
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     event.Timestamp,
		},
	)
}

// Close closes the publisher channel.
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
