package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
)

const tokenCacheTTL = 300 * time.Second

// TokenCache keeps encrypted access tokens in the ephemeral store. It is never
// the system of record, so every failure is logged and treated as a miss.
type TokenCache struct {
	store  ports.EphemeralStore
	cipher ports.TokenCipher
	log    *slog.Logger
	ttl    time.Duration
}

type cachedToken struct {
	TokenEncrypted  string `json:"tokenEncrypted"`
	IsDummy         bool   `json:"isDummy"`
	SocialAccountID int64  `json:"socialAccountId"`
}

// NewTokenCache constructs a cache over store.
func NewTokenCache(store ports.EphemeralStore, cipher ports.TokenCipher, log *slog.Logger) *TokenCache {
	if log == nil {
		log = slog.Default()
	}
	return &TokenCache{store: store, cipher: cipher, log: log, ttl: tokenCacheTTL}
}

func tokenCacheKey(orgID string, platform domain.Platform, accountID int64) string {
	key := "token:" + orgID + ":" + platform.String()
	if accountID > 0 {
		key += ":" + strconv.FormatInt(accountID, 10)
	}
	return key
}

func (c *TokenCache) get(ctx context.Context, orgID string, platform domain.Platform, accountID int64) (*domain.AccessToken, bool) {
	key := tokenCacheKey(orgID, platform, accountID)
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "token_cache_read_failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var entry cachedToken
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.WarnContext(ctx, "token_cache_decode_failed", "key", key, "error", err)
		return nil, false
	}
	plain, err := c.cipher.Decrypt(entry.TokenEncrypted)
	if err != nil {
		c.log.WarnContext(ctx, "token_cache_decrypt_failed", "key", key, "error", err)
		return nil, false
	}
	return &domain.AccessToken{AccessToken: plain, IsDummy: entry.IsDummy, SocialAccountID: entry.SocialAccountID}, true
}

func (c *TokenCache) put(ctx context.Context, orgID string, platform domain.Platform, accountID int64, token domain.AccessToken) {
	key := tokenCacheKey(orgID, platform, accountID)
	encrypted, err := c.cipher.Encrypt(token.AccessToken)
	if err != nil {
		c.log.WarnContext(ctx, "token_cache_encrypt_failed", "key", key, "error", err)
		return
	}
	raw, err := json.Marshal(cachedToken{TokenEncrypted: encrypted, IsDummy: token.IsDummy, SocialAccountID: token.SocialAccountID})
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.log.WarnContext(ctx, "token_cache_write_failed", "key", key, "error", err)
	}
}

// Evict removes cached tokens for (orgID, platform). With a known account it
// deletes the exact account key and the bare key; otherwise it scans every
// account key under the pair.
func (c *TokenCache) Evict(ctx context.Context, orgID string, platform domain.Platform, accountID int64) {
	bare := tokenCacheKey(orgID, platform, 0)
	keys := []string{bare}
	if accountID > 0 {
		keys = append(keys, tokenCacheKey(orgID, platform, accountID))
	} else {
		scanned, err := c.store.ScanPrefix(ctx, bare+":")
		if err != nil {
			c.log.WarnContext(ctx, "token_cache_scan_failed", "prefix", bare+":", "error", err)
		}
		keys = append(keys, scanned...)
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.log.WarnContext(ctx, "token_cache_evict_failed", "org_id", orgID, "provider", platform, "error", err)
	}
}
