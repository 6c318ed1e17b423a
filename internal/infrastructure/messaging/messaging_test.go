package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/infrastructure/storage/postgres"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func sampleMessage() *postgres.OutboxMessage {
	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: events.AggregateSale,
		AggregateID:   id.New(),
		EventType:     events.SaleCompleted,
		Payload:       json.RawMessage(`{"total":"121.00"}`),
		Actor:         "maria",
		RequestID:     "req-1",
		CreatedAt:     time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_Handle(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	msg := sampleMessage()

	require.NoError(t, p.Handle(context.Background(), msg))
	require.Len(t, w.msgs, 1)

	km := w.msgs[0]
	assert.Equal(t, msg.AggregateID.String(), string(km.Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(km.Value, &env))
	assert.Equal(t, events.SaleCompleted, env.Type)
	assert.Equal(t, "maria", env.Actor)
	assert.JSONEq(t, `{"total":"121.00"}`, string(env.Payload))
	assert.Equal(t, "event_type", km.Headers[0].Key)
	assert.Equal(t, events.SaleCompleted, string(km.Headers[0].Value))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.Handle(context.Background(), sampleMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestDispatcher_RoutesAndStopsOnError(t *testing.T) {
	var calls []string
	record := func(name string, err error) postgres.OutboxHandler {
		return postgres.OutboxHandlerFunc(func(context.Context, *postgres.OutboxMessage) error {
			calls = append(calls, name)
			return err
		})
	}
	onlyPayments := func(t string) bool { return t == events.PaymentRecorded }

	d := NewDispatcher(
		Subscriber{Name: "payments-only", Accepts: onlyPayments, Handler: record("payments-only", nil)},
		Subscriber{Name: "first", Accepts: All, Handler: record("first", nil)},
		Subscriber{Name: "failing", Accepts: All, Handler: record("failing", errors.New("boom"))},
		Subscriber{Name: "last", Accepts: All, Handler: record("last", nil)},
	)

	err := d.Handle(context.Background(), sampleMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: boom")
	assert.Equal(t, []string{"first", "failing"}, calls)
}
