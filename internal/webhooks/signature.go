// Package webhooks verifies inbound platform webhook signatures and extracts
// routing metadata from their payloads.
package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

// MaxPayloadBytes bounds the raw body accepted from any platform.
const MaxPayloadBytes = 1 << 20

var (
	// ErrInvalidSignature is returned when a configured secret does not verify the body.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrUnsupportedProvider is returned for platforms without a webhook scheme.
	ErrUnsupportedProvider = errors.New("unsupported webhook provider")
)

type encoding int

const (
	encodingHex encoding = iota
	encodingBase64
)

// Scheme describes how one platform transmits its body signature.
type Scheme struct {
	Headers  []string
	Prefix   string
	encoding encoding
}

var schemes = map[domain.Platform]Scheme{
	domain.PlatformMeta:     {Headers: []string{"X-Meta-Signature", "X-Hub-Signature-256"}, Prefix: "sha256=", encoding: encodingHex},
	domain.PlatformLinkedIn: {Headers: []string{"X-Linkedin-Signature"}, Prefix: "hmacsha256=", encoding: encodingHex},
	domain.PlatformGoogle:   {Headers: []string{"X-Google-Signature"}, encoding: encodingBase64},
	domain.PlatformYouTube:  {Headers: []string{"X-Youtube-Signature", "X-Google-Signature"}, encoding: encodingBase64},
}

// SchemeFor returns the signature scheme for platform.
func SchemeFor(platform domain.Platform) (Scheme, bool) {
	scheme, ok := schemes[platform]
	return scheme, ok
}

// Signature returns the first non-empty signature header value.
func (s Scheme) Signature(header http.Header) string {
	for _, name := range s.Headers {
		if value := strings.TrimSpace(header.Get(name)); value != "" {
			return value
		}
	}
	return ""
}

// Sign computes the header value a platform would send for body.
func (s Scheme) Sign(secret string, body []byte) string {
	digest := mac(secret, body)
	if s.encoding == encodingBase64 {
		return s.Prefix + base64.StdEncoding.EncodeToString(digest)
	}
	return s.Prefix + hex.EncodeToString(digest)
}

// Verify checks signature against the HMAC-SHA256 of body in constant time.
func (s Scheme) Verify(secret string, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrInvalidSignature
	}
	if s.Prefix != "" {
		if !strings.HasPrefix(strings.ToLower(signature), s.Prefix) {
			return ErrInvalidSignature
		}
		signature = signature[len(s.Prefix):]
	}

	var provided []byte
	var err error
	switch s.encoding {
	case encodingBase64:
		provided, err = base64.StdEncoding.DecodeString(signature)
	default:
		provided, err = hex.DecodeString(strings.ToLower(signature))
	}
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(provided, mac(secret, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// IdempotencyKey is hex(sha256(body || signature)).
func IdempotencyKey(body []byte, signature string) string {
	h := sha256.New()
	h.Write(body)
	h.Write([]byte(signature))
	return hex.EncodeToString(h.Sum(nil))
}

// ChallengeResponse answers a LinkedIn endpoint validation challenge.
func ChallengeResponse(secret, challengeCode string) string {
	return hex.EncodeToString(mac(secret, []byte(challengeCode)))
}

func mac(secret string, body []byte) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(body)
	return m.Sum(nil)
}
