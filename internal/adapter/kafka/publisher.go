package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces incident events to a Kafka topic.
// It implements domain.IncidentPublisher.
type Publisher struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates an asynchronous Kafka producer for the incident topic.
// Delivery results are reported through logs and metrics, never to the caller.
func NewPublisher(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	p := &Publisher{metrics: metrics, logger: logger}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

// PublishIncidentEvent enqueues event keyed by incident ID, so every event
// for one incident lands on the same partition in order.
func (p *Publisher) PublishIncidentEvent(ctx context.Context, event domain.IncidentEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		p.metrics.IncidentEvents.WithLabelValues(event.Type, "error").Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.IncidentEvents.WithLabelValues(event.Type, "error").Inc()
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) completed(msgs []kafkago.Message, err error) {
	for _, m := range msgs {
		eventType := headerValue(m, "event_type")
		if err != nil {
			p.metrics.IncidentEvents.WithLabelValues(eventType, "error").Inc()
			p.logger.Error("incident event delivery failed",
				"event_type", eventType,
				"incident_id", string(m.Key),
				"error", err,
			)
			continue
		}
		p.metrics.IncidentEvents.WithLabelValues(eventType, "published").Inc()
	}
}

// serializeToMessage marshals an IncidentEvent into a Kafka message.
func serializeToMessage(event domain.IncidentEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize incident event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.IncidentID.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}

func headerValue(m kafkago.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
