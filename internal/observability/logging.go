package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// sensitiveKeys are attribute keys whose values are credentials.
var sensitiveKeys = map[string]struct{}{
	"access_token":  {},
	"refresh_token": {},
	"token":         {},
	"authorization": {},
	"code":          {},
	"client_secret": {},
}

type contextHandler struct {
	next slog.Handler
}

// WrapSlogHandler adds request, organization, correlation and trace fields
// found on ctx to every record, and reduces credential attributes to a preview.
func WrapSlogHandler(next slog.Handler) slog.Handler {
	if next == nil {
		next = slog.NewTextHandler(io.Discard, nil)
	}
	return &contextHandler{next: next}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(redactAttr(attr))
		return true
	})
	out.AddAttrs(contextAttrs(ctx)...)
	return h.next.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = redactAttr(attr)
	}
	return &contextHandler{next: h.next.WithAttrs(redacted)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if requestID, ok := RequestIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if route, ok := RouteFromContext(ctx); ok {
		attrs = append(attrs, slog.String("route", route))
	}
	if orgID, ok := OrgIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String("org_id", orgID))
	}
	if correlationID, ok := ctx.Value(correlationKey).(string); ok && correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}

func redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		redacted := make([]any, len(group))
		for i, member := range group {
			redacted[i] = redactAttr(member)
		}
		return slog.Group(attr.Key, redacted...)
	}
	if _, ok := sensitiveKeys[strings.ToLower(attr.Key)]; ok && attr.Value.Kind() == slog.KindString {
		return slog.String(attr.Key, RedactToken(attr.Value.String()))
	}
	return attr
}
