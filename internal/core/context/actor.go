// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor identifies who performed a mutation. Authentication lives outside
// this service, so the actor is whatever the upstream gateway forwards.
type Actor struct {
	ID      string
	Name    string
	StoreID string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorID returns actor ID from context or "system".
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.ID != "" {
		return a.ID
	}
	return "system"
}
