package repository

import (
	"context"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	pkgkafka "PerpSignals/pkg/kafka"
)

// EventPublisher pushes lifecycle events to Kafka, keyed by symbol so
// consumers see per-symbol order.
type EventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewEventPublisher creates a Kafka-backed event publisher.
func NewEventPublisher(producer *pkgkafka.Producer, topic string) drepo.EventPublisher {
	return &EventPublisher{producer: producer, topic: topic}
}

// Publish sends one event.
func (p *EventPublisher) Publish(ctx context.Context, ev models.TradeEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

// Close closes the underlying producer.
func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher is used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.TradeEvent) error { return nil }
func (NopPublisher) Close() error                                     { return nil }
