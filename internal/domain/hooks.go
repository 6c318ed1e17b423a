package domain

import (
	"context"
	"sync"
)

// HookEvent is a lifecycle point of a source document.
type HookEvent string

const (
	// BeforeCreate hooks run before the transaction and may reject the document.
	BeforeCreate HookEvent = "before_create"
	// AfterCreate hooks run after commit. Their errors are logged, not returned.
	AfterCreate HookEvent = "after_create"
	// AfterTransition hooks run after a committed status change.
	AfterTransition HookEvent = "after_transition"
)

// Hook runs at a lifecycle point.
type Hook[T any] func(ctx context.Context, doc T) error

// HookRegistry stores lifecycle hooks for one document type.
type HookRegistry[T any] struct {
	mu    sync.RWMutex
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the event's hooks in registration order and stops at the
// first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, doc T) error {
	r.mu.RLock()
	hooks := r.hooks[event]
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) {
	r.On(BeforeCreate, hook)
}

// OnAfterCreate registers a hook to run after create.
func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T]) {
	r.On(AfterCreate, hook)
}

// OnAfterTransition registers a hook to run after a status change.
func (r *HookRegistry[T]) OnAfterTransition(hook Hook[T]) {
	r.On(AfterTransition, hook)
}
