// Package lock defines keyed mutual exclusion used around check-then-insert
// sequences (appointment booking, moves).
package lock

import (
	"context"
	"sync"
)

// Locker runs fn while holding an exclusive lock on key.
//
// Implementations may open a transaction to hold the lock; fn receives
// the context carrying it and must use that context for its own work.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Local is a process-local Locker backed by per-key mutexes. Used by tests
// and single-instance deployments without PostgreSQL advisory locks.
type Local struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocal creates a Local locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*sync.Mutex)}
}

// WithLock implements Locker.
func (l *Local) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

var _ Locker = (*Local)(nil)
