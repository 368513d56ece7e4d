// Package context carries per-run metadata (trace and run IDs) through context.Context.
package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext identifies one unit of background work (an assignment pass, a seed run).
type TraceContext struct {
	TraceID string
	RunID   string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// NewTraceContext creates a new TraceContext with generated IDs.
func NewTraceContext() *TraceContext {
	return &TraceContext{
		TraceID: uuid.New().String(),
		RunID:   uuid.New().String()[:8],
	}
}

// StartRun returns ctx carrying a fresh TraceContext.
func StartRun(ctx context.Context) context.Context {
	return WithTrace(ctx, NewTraceContext())
}
