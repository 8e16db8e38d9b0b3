package ports

import (
	"context"
	"errors"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// TokenStore persists social accounts and append-only token versions.
type TokenStore interface {
	UpsertSocialAccount(ctx context.Context, input UpsertSocialAccountInput) (domain.SocialAccount, error)
	GetSocialAccount(ctx context.Context, accountID int64) (domain.SocialAccount, error)
	InsertToken(ctx context.Context, input InsertTokenInput) (domain.StoredToken, error)
	LatestToken(ctx context.Context, organizationID string, platform domain.Platform) (domain.StoredToken, error)
	LatestTokenForAccount(ctx context.Context, accountID int64) (domain.StoredToken, error)
	ListLatestTokensExpiringBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.StoredToken, error)
}

// UpsertSocialAccountInput identifies an account by (organization, platform, external id).
type UpsertSocialAccountInput struct {
	OrganizationID string
	Platform       domain.Platform
	ExternalID     string
	DisplayName    string
}

// InsertTokenInput is one new encrypted token version.
type InsertTokenInput struct {
	SocialAccountID       int64
	AccessTokenEncrypted  string
	RefreshTokenEncrypted string
	ExpiresAt             *time.Time
	Scopes                []string
	IsDummy               bool
}

// AuditStore appends token lifecycle audit records.
type AuditStore interface {
	AppendAudit(ctx context.Context, record domain.AuditRecord) error
	ListAudit(ctx context.Context, organizationID string, limit int) ([]domain.AuditRecord, error)
}

// TokenCipher is the opaque encrypt/decrypt capability applied at rest.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
