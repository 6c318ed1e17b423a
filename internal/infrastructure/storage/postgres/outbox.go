package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	appctx "atelier/internal/core/context"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusPublished  OutboxStatus = "published"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxMessage is one row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   id.ID           `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Actor         string          `db:"actor"`
	RequestID     string          `db:"request_id"`
	Status        OutboxStatus    `db:"status"`
	RetryCount    int             `db:"retry_count"`
	LastError     *string         `db:"last_error"`
	NextRetryAt   *time.Time      `db:"next_retry_at"`
	LockedUntil   *time.Time      `db:"locked_until"`
	CreatedAt     time.Time       `db:"created_at"`
	PublishedAt   *time.Time      `db:"published_at"`
}

// OutboxPublisher writes events to sys_outbox inside the caller's
// transaction, so an event exists only if its change committed.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

var _ events.Publisher = (*OutboxPublisher)(nil)

const insertOutboxSQL = `
	INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, actor, request_id, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// Publish implements events.Publisher. It must run inside a transaction.
func (p *OutboxPublisher) Publish(ctx context.Context, event events.Event) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, insertOutboxSQL,
		id.New(), event.AggregateType, event.AggregateID, event.Type, payload,
		appctx.GetActorID(ctx), appctx.GetRequestID(ctx), OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler processes one claimed message.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle implements OutboxHandler.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// RelayConfig tunes the relay.
type RelayConfig struct {
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Lease is how long a claimed message stays invisible to other relays.
	// A relay that dies mid-batch releases its messages when it expires.
	Lease time.Duration
}

// DefaultRelayConfig returns the production defaults.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:      100,
		MaxAttempts:    5,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     10 * time.Minute,
		Lease:          time.Minute,
	}
}

// Backoff returns the delay before retry number attempt (1-based):
// InitialBackoff doubled per previous attempt, capped at MaxBackoff.
func (c RelayConfig) Backoff(attempt int) time.Duration {
	d := c.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return d
}

// OutboxRelay claims pending messages and hands them to a handler.
// Several relays may run concurrently; claiming uses SKIP LOCKED.
type OutboxRelay struct {
	txManager *TxManager
	handler   OutboxHandler
	cfg       RelayConfig
	now       func() time.Time
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, handler OutboxHandler, cfg RelayConfig) *OutboxRelay {
	return &OutboxRelay{
		txManager: txManager,
		handler:   handler,
		cfg:       cfg,
		now:       time.Now,
	}
}

const claimOutboxSQL = `
	UPDATE sys_outbox SET status = $1, locked_until = $2
	WHERE id IN (
		SELECT id FROM sys_outbox
		WHERE (status = $3 AND (next_retry_at IS NULL OR next_retry_at <= $4))
		   OR (status = $1 AND locked_until <= $4)
		ORDER BY created_at
		LIMIT $5
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, aggregate_type, aggregate_id, event_type, payload, actor, request_id, status,
	          retry_count, last_error, next_retry_at, locked_until, created_at, published_at
`

// ProcessBatch claims up to BatchSize messages and processes them.
// It returns the number handled successfully.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	now := r.now().UTC()

	var messages []*OutboxMessage
	err := pgxscan.Select(ctx, r.txManager.Pool(), &messages, claimOutboxSQL,
		OutboxStatusProcessing, now.Add(r.cfg.Lease), OutboxStatusPending, now, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim outbox messages: %w", err)
	}

	processed := 0
	for _, msg := range messages {
		if err := r.processMessage(ctx, msg); err != nil {
			logger.Warn(ctx, "outbox message failed",
				"id", msg.ID,
				"event_type", msg.EventType,
				"attempt", msg.RetryCount+1,
				"error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) error {
	ctx = appctx.WithActor(ctx, &appctx.Actor{ID: msg.Actor})
	if msg.RequestID != "" {
		ctx = appctx.WithTrace(ctx, &appctx.TraceContext{RequestID: msg.RequestID})
	}
	ctx, span := tracer.Start(ctx, "outbox.dispatch",
		trace.WithAttributes(
			attribute.String("outbox.event_type", msg.EventType),
			attribute.String("outbox.aggregate_id", msg.AggregateID.String()),
		))
	defer span.End()

	handleErr := r.handler.Handle(ctx, msg)
	if handleErr == nil {
		_, err := r.txManager.Pool().Exec(ctx, `
			UPDATE sys_outbox SET status = $1, published_at = $2, locked_until = NULL, last_error = NULL
			WHERE id = $3
		`, OutboxStatusPublished, r.now().UTC(), msg.ID)
		if err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
		return nil
	}

	span.RecordError(handleErr)
	attempt := msg.RetryCount + 1
	status := OutboxStatusPending
	if attempt >= r.cfg.MaxAttempts {
		status = OutboxStatusFailed
		logger.Error(ctx, "outbox message exhausted retries",
			"id", msg.ID,
			"event_type", msg.EventType,
			"attempts", attempt,
			"error", handleErr)
	}

	_, err := r.txManager.Pool().Exec(ctx, `
		UPDATE sys_outbox
		SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4, locked_until = NULL
		WHERE id = $5
	`, attempt, handleErr.Error(), r.now().UTC().Add(r.cfg.Backoff(attempt)), status, msg.ID)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return handleErr
}

// MoveToDLQ moves failed messages to sys_outbox_dlq.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.Pool().Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING id, aggregate_type, aggregate_id, event_type, payload, actor, retry_count, last_error, created_at
		)
		INSERT INTO sys_outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, actor, retry_count, failure_reason, created_at, failed_at)
		SELECT id, aggregate_type, aggregate_id, event_type, payload, actor, retry_count, last_error, created_at, NOW()
		FROM moved
	`, OutboxStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return result.RowsAffected(), nil
}

// PurgePublished deletes published messages older than before.
func (r *OutboxRelay) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.txManager.Pool().Exec(ctx,
		`DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2`,
		OutboxStatusPublished, before)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return result.RowsAffected(), nil
}
