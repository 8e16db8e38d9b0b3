package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

const nonceBytes = 32

// storedState is the server-side record kept under the state key.
type storedState struct {
	OrganizationID string `json:"orgId"`
	PKCEVerifier   string `json:"pkceVerifier,omitempty"`
	PKCEChallenge  string `json:"pkceChallenge,omitempty"`
	ExpiresAt      int64  `json:"expiresAt"`
}

func newNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// EncodeStateBlob returns base64url(JSON(blob)).
func EncodeStateBlob(blob domain.StateBlob) (string, error) {
	raw, err := json.Marshal(blob)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeStateBlob reverses EncodeStateBlob. Padded input is accepted.
func DecodeStateBlob(value string) (domain.StateBlob, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(value)
	}
	if err != nil {
		return domain.StateBlob{}, ErrInvalidState
	}
	var blob domain.StateBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return domain.StateBlob{}, ErrInvalidState
	}
	if blob.Nonce == "" || blob.Provider == "" || blob.Exp == 0 {
		return domain.StateBlob{}, ErrInvalidState
	}
	return blob, nil
}

func stateKey(platform domain.Platform, nonce string) string {
	return "oauth:state:" + platform.String() + ":" + nonce
}

func consumedKey(platform domain.Platform, nonce string) string {
	return "oauth:consumed:" + platform.String() + ":" + nonce
}

func codeClaimKey(platform domain.Platform, code string) string {
	sum := sha256.Sum256([]byte(platform.String() + code))
	return "oauth:code:" + hex.EncodeToString(sum[:])
}

func unixMillis(t time.Time) int64 {
	return t.UnixMilli()
}
