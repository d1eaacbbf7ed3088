package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/publishing/internal/infra/context"
)

// TracingHandler adds the request trace ID found in the context to every record
// before passing it on.
type TracingHandler struct {
	next slog.Handler
}

var _ slog.Handler = (*TracingHandler)(nil)

// NewTracingHandler wraps next.
func NewTracingHandler(next slog.Handler) *TracingHandler {
	return &TracingHandler{next: next}
}

// Handle implements slog.Handler.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("trace", slog.String("id", traceID)))
	}

	//nolint:wrapcheck
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTracingHandler(h.next.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.
func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return NewTracingHandler(h.next.WithGroup(name))
}

// Enabled implements slog.Handler.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}
