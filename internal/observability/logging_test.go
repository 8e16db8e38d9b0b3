package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWrapSlogHandlerAddsRequestContext(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(WrapSlogHandler(slog.NewTextHandler(&buf, nil)))

	ctx := WithRequestMetadata(context.Background(), "req-42", "/oauth/:provider/callback")
	ctx = WithRequestIdentity(ctx, 7, "org1")
	log.InfoContext(ctx, "oauth_callback_saved")

	out := buf.String()
	for _, want := range []string{"request_id=req-42", "route=/oauth/:provider/callback"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log line %q", want, out)
		}
	}
	if org, ok := OrgIDFromContext(ctx); !ok || org != "org1" {
		t.Fatalf("expected org id on context, got %q", org)
	}
}

func TestCorrelationIDFallsBackToRequestID(t *testing.T) {
	ctx := WithRequestMetadata(context.Background(), "req-1", "")
	if id, _ := CorrelationIDFromContext(ctx); id != "req-1" {
		t.Fatalf("expected request id fallback, got %q", id)
	}
	ctx = WithCorrelationID(ctx, "corr-9")
	if id, _ := CorrelationIDFromContext(ctx); id != "corr-9" {
		t.Fatalf("expected explicit correlation id, got %q", id)
	}
}

func TestWrapSlogHandlerRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(WrapSlogHandler(slog.NewTextHandler(&buf, nil))).With("refresh_token", "rt-very-secret-value")

	log.Info("token_refreshed", "access_token", "ya29.secret-access", slog.Group("provider", "code", "auth-code-123"))

	out := buf.String()
	for _, leaked := range []string{"rt-very-secret-value", "ya29.secret-access", "auth-code-123"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("credential %q leaked into %q", leaked, out)
		}
	}
	if !strings.Contains(out, "ya29.s…") {
		t.Fatalf("expected preview in %q", out)
	}
}
