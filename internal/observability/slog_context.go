package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/placeshub/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// ctxAttrs pulls log attributes out of a request context.
type ctxAttrs func(ctx context.Context) []slog.Attr

func spanAttrs(ctx context.Context) []slog.Attr {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}

	return []slog.Attr{
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	}
}

func actorAttrs(ctx context.Context) []slog.Attr {
	userID, ok := actorctx.UserIDFrom(ctx)
	if !ok {
		return nil
	}

	return []slog.Attr{slog.String("actor_id", userID)}
}

// contextHandler stamps every record with span ids and, behind the gate,
// the acting user.
type contextHandler struct {
	slog.Handler
	sources []ctxAttrs
}

func withContextAttrs(next slog.Handler) slog.Handler {
	return contextHandler{Handler: next, sources: []ctxAttrs{spanAttrs, actorAttrs}}
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, src := range h.sources {
		r.AddAttrs(src(ctx)...)
	}

	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs), sources: h.sources}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name), sources: h.sources}
}
