package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID    contextKey = "run_id"
	ContextKeyDocument contextKey = "document"
)

// WithRunID tags a batch run on the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithDocument records the source path of the document being processed
func WithDocument(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ContextKeyDocument, source)
}

// DocumentFromContext extracts the document source from context
func DocumentFromContext(ctx context.Context) string {
	if source, ok := ctx.Value(ContextKeyDocument).(string); ok {
		return source
	}
	return ""
}

// WithTimeout creates a context with the specified timeout; d <= 0 only adds a cancel func.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
