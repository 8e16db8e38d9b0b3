// Package secrets encrypts platform credentials before they reach any store.
package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/fr0stylo/tokengate/internal/app/ports"
)

const (
	versionPrefix = "v1:"
	keyInfo       = "tokengate/token-cipher/v1"
)

var (
	// ErrEmptySecret indicates the cipher was built without key material.
	ErrEmptySecret = errors.New("token encryption secret is empty")
	// ErrMalformedCiphertext indicates the input was not produced by this cipher.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)

// Cipher seals values with XChaCha20-Poly1305 under a key derived from an operator secret.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 256-bit key from secret with HKDF-SHA256.
func NewCipher(secret string) (*Cipher, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init token cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt returns "v1:" + base64(nonce || sealed).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	encoded, ok := strings.CutPrefix(ciphertext, versionPrefix)
	if !ok {
		return "", ErrMalformedCiphertext
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", ErrMalformedCiphertext
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open token: %w", err)
	}
	return string(plain), nil
}

var _ ports.TokenCipher = (*Cipher)(nil)
