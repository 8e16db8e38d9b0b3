package routes

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

const stateCookiePrefix = "tg_oauth_"

// StateCookies signs the per-provider OAuth nonce cookie.
type StateCookies struct {
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

// NewStateCookies derives the signing key from secret.
func NewStateCookies(secret string, ttl time.Duration, secure bool) *StateCookies {
	hashKey := sha256.Sum256([]byte("tokengate-oauth-state:" + secret))
	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(int(ttl.Seconds()))
	return &StateCookies{codec: codec, ttl: ttl, secure: secure}
}

func stateCookieName(provider string) string {
	return stateCookiePrefix + provider
}

func stateCookiePath(provider string) string {
	return "/oauth/" + provider
}

// Set writes the signed nonce for provider.
func (s *StateCookies) Set(c echo.Context, provider, nonce string) error {
	name := stateCookieName(provider)
	encoded, err := s.codec.Encode(name, nonce)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     stateCookiePath(provider),
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the verified nonce, or "" when the cookie is absent or forged.
func (s *StateCookies) Read(c echo.Context, provider string) string {
	name := stateCookieName(provider)
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	var nonce string
	if err := s.codec.Decode(name, cookie.Value, &nonce); err != nil {
		return ""
	}
	return nonce
}

// Clear expires the provider's cookie.
func (s *StateCookies) Clear(c echo.Context, provider string) {
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName(provider),
		Value:    "",
		Path:     stateCookiePath(provider),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
