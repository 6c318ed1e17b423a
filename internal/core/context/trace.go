package context

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceContext correlates the log lines, audit rows and outbox messages
// produced by one request.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// FromSpan takes trace and span ids from the OpenTelemetry span in ctx.
// It reports false when no exporter is installed and the span is a no-op.
func FromSpan(ctx context.Context, requestID string) (*TraceContext, bool) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil, false
	}
	return &TraceContext{
		TraceID:   sc.TraceID().String(),
		SpanID:    sc.SpanID().String(),
		RequestID: requestID,
	}, true
}
