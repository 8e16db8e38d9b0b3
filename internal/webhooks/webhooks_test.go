package webhooks

import (
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

func TestSchemesRoundTrip(t *testing.T) {
	t.Parallel()
	body := []byte(`{"object":"page","entry":[{"id":"123"}]}`)
	for _, platform := range domain.Platforms {
		scheme, ok := SchemeFor(platform)
		if !ok {
			t.Fatalf("missing scheme for %s", platform)
		}
		signature := scheme.Sign("secret", body)
		if err := scheme.Verify("secret", body, signature); err != nil {
			t.Fatalf("%s: expected valid signature, got %v", platform, err)
		}
		if err := scheme.Verify("other", body, signature); err != ErrInvalidSignature {
			t.Fatalf("%s: expected invalid signature for wrong secret, got %v", platform, err)
		}
		if err := scheme.Verify("secret", append(body, ' '), signature); err != ErrInvalidSignature {
			t.Fatalf("%s: expected invalid signature for altered body, got %v", platform, err)
		}
		if err := scheme.Verify("secret", body, ""); err != ErrInvalidSignature {
			t.Fatalf("%s: expected missing signature to fail, got %v", platform, err)
		}
	}
}

func TestSignatureEncodings(t *testing.T) {
	t.Parallel()
	meta, _ := SchemeFor(domain.PlatformMeta)
	if sig := meta.Sign("s", []byte("x")); !strings.HasPrefix(sig, "sha256=") || len(sig) != len("sha256=")+64 {
		t.Fatalf("unexpected meta signature %q", sig)
	}
	linkedIn, _ := SchemeFor(domain.PlatformLinkedIn)
	if sig := linkedIn.Sign("s", []byte("x")); !strings.HasPrefix(sig, "hmacsha256=") {
		t.Fatalf("unexpected linkedin signature %q", sig)
	}
	google, _ := SchemeFor(domain.PlatformGoogle)
	if raw, err := base64.StdEncoding.DecodeString(google.Sign("s", []byte("x"))); err != nil || len(raw) != 32 {
		t.Fatalf("expected raw base64 digest, err=%v len=%d", err, len(raw))
	}
	// hex prefix is rejected for a base64 scheme
	if err := google.Verify("s", []byte("x"), meta.Sign("s", []byte("x"))); err == nil {
		t.Fatal("expected hex signature to fail base64 verification")
	}
}

func TestMetaAcceptsHubSignatureAlias(t *testing.T) {
	t.Parallel()
	scheme, _ := SchemeFor(domain.PlatformMeta)
	header := http.Header{}
	header.Set("X-Hub-Signature-256", "sha256=abc")
	if got := scheme.Signature(header); got != "sha256=abc" {
		t.Fatalf("expected alias header, got %q", got)
	}
	header.Set("X-Meta-Signature", "sha256=def")
	if got := scheme.Signature(header); got != "sha256=def" {
		t.Fatalf("expected primary header to win, got %q", got)
	}
}

func TestIdempotencyKeyCoversBodyAndSignature(t *testing.T) {
	t.Parallel()
	a := IdempotencyKey([]byte("body"), "sig")
	if a != IdempotencyKey([]byte("body"), "sig") {
		t.Fatal("expected deterministic key")
	}
	if a == IdempotencyKey([]byte("body"), "sig2") || a == IdempotencyKey([]byte("body2"), "sig") {
		t.Fatal("expected key to change with body or signature")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %d chars", len(a))
	}
}

func TestExtractMetadata(t *testing.T) {
	t.Parallel()
	cases := []struct {
		platform domain.Platform
		body     string
		want     Metadata
	}{
		{domain.PlatformMeta, `{"object":"page","entry":[{"id":"p1","changes":[{"field":"feed"}]}]}`, Metadata{ExternalAccountID: "p1", EventType: "feed"}},
		{domain.PlatformMeta, `{"object":"page","entry":[{"id":"p1"}]}`, Metadata{ExternalAccountID: "p1", EventType: "page"}},
		{domain.PlatformLinkedIn, `{"type":"SHARE","organizationalEntity":"urn:li:organization:9"}`, Metadata{ExternalAccountID: "urn:li:organization:9", EventType: "SHARE"}},
		{domain.PlatformGoogle, `{"notificationType":"NEW_REVIEW","locationName":"locations/7"}`, Metadata{ExternalAccountID: "locations/7", EventType: "NEW_REVIEW"}},
		{domain.PlatformYouTube, `not json`, Metadata{EventType: "video"}},
	}
	for _, tc := range cases {
		if got := ExtractMetadata(tc.platform, []byte(tc.body)); got != tc.want {
			t.Fatalf("%s: got %+v want %+v", tc.platform, got, tc.want)
		}
	}
}

func TestSafeHeadersDropsCredentials(t *testing.T) {
	t.Parallel()
	headers := SafeHeaders(http.Header{
		"Content-Type":  {"application/json"},
		"Authorization": {"Bearer x"},
		"Cookie":        {"a=b"},
	})
	if len(headers) != 1 || headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected headers %#v", headers)
	}
}
