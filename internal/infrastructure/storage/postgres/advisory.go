package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"atelier/internal/core/lock"
)

// AdvisoryLocker serializes work per key with transaction-scoped advisory
// locks. The lock is taken inside the transaction handed to fn and is
// released when it commits or rolls back.
type AdvisoryLocker struct {
	txManager *TxManager
}

// NewAdvisoryLocker creates a new advisory locker.
func NewAdvisoryLocker(txManager *TxManager) *AdvisoryLocker {
	return &AdvisoryLocker{txManager: txManager}
}

// WithLock implements lock.Locker.
func (l *AdvisoryLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := AdvisoryXactLock(ctx, l.txManager.GetQuerier(ctx), key); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// Execer runs a statement without returning rows.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// AdvisoryXactLock blocks until the transaction behind q holds the lock
// for key. Outside a transaction the lock is released immediately.
func AdvisoryXactLock(ctx context.Context, q Execer, key string) error {
	if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
		return fmt.Errorf("advisory lock %q: %w", key, err)
	}
	return nil
}

var _ lock.Locker = (*AdvisoryLocker)(nil)
