package messaging

import (
	"context"
	"fmt"

	"atelier/internal/domain/accounting"
	"atelier/internal/infrastructure/storage/postgres"
	"atelier/pkg/logger"
)

// Subscriber consumes the outbox messages it accepts.
type Subscriber struct {
	Name    string
	Accepts func(eventType string) bool
	Handler postgres.OutboxHandler
}

// All accepts every event type.
func All(string) bool { return true }

// Dispatcher routes an outbox message to its subscribers in order. The
// first failure stops the chain and the relay retries the whole message,
// so subscribers must tolerate redelivery.
type Dispatcher struct {
	subscribers []Subscriber
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(subscribers ...Subscriber) *Dispatcher {
	return &Dispatcher{subscribers: subscribers}
}

var _ postgres.OutboxHandler = (*Dispatcher)(nil)

// Handle implements postgres.OutboxHandler.
func (d *Dispatcher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	for _, s := range d.subscribers {
		if !s.Accepts(msg.EventType) {
			continue
		}
		if err := s.Handler.Handle(ctx, msg); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		logger.Debug(ctx, "outbox message delivered",
			"subscriber", s.Name,
			"event_type", msg.EventType,
			"aggregate_id", msg.AggregateID)
	}
	return nil
}

// AccountingSubscriber posts journal entries for accounting events.
func AccountingSubscriber(svc *accounting.Service) Subscriber {
	return Subscriber{
		Name:    "accounting",
		Accepts: accounting.PostsFor,
		Handler: postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
			return svc.HandleEvent(ctx, msg.EventType, msg.AggregateID)
		}),
	}
}

// AuditSubscriber records every event in the audit trail.
func AuditSubscriber(audit *postgres.AuditService) Subscriber {
	return Subscriber{
		Name:    "audit",
		Accepts: All,
		Handler: postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
			return audit.Log(ctx, postgres.AuditEntry{
				EntityType: msg.AggregateType,
				EntityID:   msg.AggregateID,
				Action:     postgres.AuditActionEvent,
				Changes:    msg.Payload,
			})
		}),
	}
}

// KafkaSubscriber forwards every event to Kafka.
func KafkaSubscriber(p *KafkaPublisher) Subscriber {
	return Subscriber{Name: "kafka", Accepts: All, Handler: p}
}
