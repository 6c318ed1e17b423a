// Package messaging delivers outbox messages to their consumers: the
// accounting generator, the audit trail and an optional Kafka topic.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"atelier/internal/core/id"
	"atelier/internal/infrastructure/storage/postgres"
)

// Envelope is the JSON value of every published Kafka message.
type Envelope struct {
	ID            id.ID           `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   id.ID           `json:"aggregate_id"`
	Actor         string          `json:"actor"`
	RequestID     string          `json:"request_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards outbox messages to a Kafka topic. Writes are
// synchronous so a failed write is retried by the relay.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for topic on the comma separated
// broker list.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

// Message builds the Kafka message for msg, keyed by aggregate so events of
// one document stay ordered within a partition.
func Message(msg *postgres.OutboxMessage) (kafka.Message, error) {
	value, err := json.Marshal(Envelope{
		ID:            msg.ID,
		Type:          msg.EventType,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		Actor:         msg.Actor,
		RequestID:     msg.RequestID,
		Payload:       msg.Payload,
		OccurredAt:    msg.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal envelope: %w", err)
	}
	return kafka.Message{
		Key:   []byte(msg.AggregateID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "request_id", Value: []byte(msg.RequestID)},
		},
		Time: msg.CreatedAt,
	}, nil
}

// Handle implements postgres.OutboxHandler.
func (p *KafkaPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	km, err := Message(msg)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, km); err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.EventType, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
