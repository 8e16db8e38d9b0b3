package domain

import "time"

// UnknownOrganization is recorded on webhook events whose account is not linked to any organization.
const UnknownOrganization = "unknown"

// AuthorizationState is the server-side half of an in-flight OAuth handshake.
type AuthorizationState struct {
	Provider       Platform
	OrganizationID string
	Nonce          string
	PKCEVerifier   string
	PKCEChallenge  string
	ExpiresAt      time.Time
}

// StateBlob is the payload carried through the provider redirect in the state parameter.
type StateBlob struct {
	OrgID    string `json:"orgId"`
	Provider string `json:"provider"`
	Nonce    string `json:"nonce"`
	Exp      int64  `json:"exp"`
}

// SocialAccount is a linked platform identity owned by an organization.
type SocialAccount struct {
	ID             int64
	OrganizationID string
	Platform       Platform
	ExternalID     string
	DisplayName    string
	CreatedAt      time.Time
}

// StoredToken is one immutable token version for a social account.
type StoredToken struct {
	ID                    int64
	SocialAccountID       int64
	OrganizationID        string
	Platform              Platform
	AccessTokenEncrypted  string
	RefreshTokenEncrypted string
	ExpiresAt             *time.Time
	Scopes                []string
	IsDummy               bool
	CreatedAt             time.Time
}

// HasRefreshToken reports whether the version carries a refresh credential.
func (t StoredToken) HasRefreshToken() bool {
	return t.RefreshTokenEncrypted != ""
}

// ExpiresWithin reports whether the token expires before now+window.
// Tokens without an expiry never expire.
func (t StoredToken) ExpiresWithin(now time.Time, window time.Duration) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(now.Add(window))
}

// AccessToken is a usable plaintext credential handed to callers.
type AccessToken struct {
	AccessToken     string
	IsDummy         bool
	SocialAccountID int64
}

// TokenStatus summarizes the latest token for an organization and platform.
type TokenStatus struct {
	OK           bool   `json:"ok"`
	HasToken     bool   `json:"hasToken"`
	IsDummy      bool   `json:"isDummy"`
	TokenPreview string `json:"tokenPreview"`
}

// AuditEvent names a token lifecycle audit entry.
type AuditEvent string

const (
	AuditAcquire        AuditEvent = "acquire"
	AuditSelectPage     AuditEvent = "select_page"
	AuditRefreshAttempt AuditEvent = "refresh_attempt"
	AuditRefreshSuccess AuditEvent = "refresh_success"
	AuditRefreshFailure AuditEvent = "refresh_failure"
	AuditFailure        AuditEvent = "failure"
)

// AuditRecord is an append-only token lifecycle record.
type AuditRecord struct {
	ID              int64
	Event           AuditEvent
	OrganizationID  string
	Provider        Platform
	SocialAccountID int64
	Success         bool
	Reason          string
	Scopes          []string
	ExpiresAt       *time.Time
	CorrelationID   string
	CreatedAt       time.Time
}

// WebhookEvent is a verified inbound provider notification.
type WebhookEvent struct {
	ID             int64
	OrganizationID string
	Provider       Platform
	EventType      string
	Payload        []byte
	Headers        map[string]string
	Signature      string
	IdempotencyKey string
	ReceivedAt     time.Time
	ProcessedAt    *time.Time
}

// ContentStatus is the review state of a content item.
type ContentStatus string

const (
	ContentDraft         ContentStatus = "draft"
	ContentPendingReview ContentStatus = "pending_review"
	ContentApproved      ContentStatus = "approved"
	ContentRejected      ContentStatus = "rejected"
)

// Role is an organization membership role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanManageIntegrations reports whether the role may connect accounts and change policy.
func (r Role) CanManageIntegrations() bool {
	return r == RoleOwner || r == RoleAdmin
}

// User is an operator of the service.
type User struct {
	ID        int64
	GitHubID  string
	Email     string
	Nickname  string
	Name      string
	AvatarURL string
}

// Membership links an operator to an organization.
type Membership struct {
	UserID         int64
	OrganizationID string
	Role           Role
}
