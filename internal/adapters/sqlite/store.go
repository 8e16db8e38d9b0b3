// Package sqlite maps the durable ports onto the sqlc queries over the SQLite schema.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/db"
	"github.com/fr0stylo/tokengate/internal/db/queries"
)

const publishingPausedKey = "publishing_paused"

// Store implements every durable port on one shared connection.
type Store struct {
	q   *queries.Queries
	now func() time.Time
}

// NewStore builds a store over the database's generated queries.
func NewStore(database *db.Database) *Store {
	return &Store{q: database.Queries, now: time.Now}
}

func (s *Store) UpsertSocialAccount(ctx context.Context, input ports.UpsertSocialAccountInput) (domain.SocialAccount, error) {
	now := s.now().UnixMilli()
	row, err := s.q.UpsertSocialAccount(ctx, queries.UpsertSocialAccountParams{
		OrganizationID: input.OrganizationID,
		Platform:       string(input.Platform),
		ExternalID:     input.ExternalID,
		DisplayName:    strings.TrimSpace(input.DisplayName),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return domain.SocialAccount{}, fmt.Errorf("upsert social account: %w", err)
	}
	return socialAccountFromRow(row), nil
}

func (s *Store) GetSocialAccount(ctx context.Context, accountID int64) (domain.SocialAccount, error) {
	row, err := s.q.GetSocialAccount(ctx, accountID)
	if err != nil {
		return domain.SocialAccount{}, notFound(err)
	}
	return socialAccountFromRow(row), nil
}

func (s *Store) InsertToken(ctx context.Context, input ports.InsertTokenInput) (domain.StoredToken, error) {
	row, err := s.q.InsertToken(ctx, queries.InsertTokenParams{
		SocialAccountID:       input.SocialAccountID,
		AccessTokenEncrypted:  input.AccessTokenEncrypted,
		RefreshTokenEncrypted: input.RefreshTokenEncrypted,
		ExpiresAt:             nullMillis(input.ExpiresAt),
		Scopes:                joinScopes(input.Scopes),
		IsDummy:               boolInt(input.IsDummy),
		CreatedAt:             s.now().UnixMilli(),
	})
	if err != nil {
		return domain.StoredToken{}, fmt.Errorf("insert token: %w", err)
	}
	return domain.StoredToken{
		ID:                    row.ID,
		SocialAccountID:       input.SocialAccountID,
		AccessTokenEncrypted:  input.AccessTokenEncrypted,
		RefreshTokenEncrypted: input.RefreshTokenEncrypted,
		ExpiresAt:             input.ExpiresAt,
		Scopes:                input.Scopes,
		IsDummy:               input.IsDummy,
		CreatedAt:             time.UnixMilli(row.CreatedAt),
	}, nil
}

func (s *Store) LatestToken(ctx context.Context, organizationID string, platform domain.Platform) (domain.StoredToken, error) {
	row, err := s.q.LatestToken(ctx, queries.LatestTokenParams{OrganizationID: organizationID, Platform: string(platform)})
	if err != nil {
		return domain.StoredToken{}, notFound(err)
	}
	return tokenFromRow(row), nil
}

func (s *Store) LatestTokenForAccount(ctx context.Context, accountID int64) (domain.StoredToken, error) {
	row, err := s.q.LatestTokenForAccount(ctx, accountID)
	if err != nil {
		return domain.StoredToken{}, notFound(err)
	}
	return tokenFromRow(queries.LatestTokenRow(row)), nil
}

func (s *Store) ListLatestTokensExpiringBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.StoredToken, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.ListLatestTokensExpiringBefore(ctx, queries.ListLatestTokensExpiringBeforeParams{
		Cutoff:   nullMillis(&cutoff),
		RowLimit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list expiring tokens: %w", err)
	}
	tokens := make([]domain.StoredToken, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, tokenFromRow(queries.LatestTokenRow(row)))
	}
	return tokens, nil
}

func (s *Store) AppendAudit(ctx context.Context, record domain.AuditRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	var accountID sql.NullInt64
	if record.SocialAccountID > 0 {
		accountID = sql.NullInt64{Int64: record.SocialAccountID, Valid: true}
	}
	err := s.q.AppendAudit(ctx, queries.AppendAuditParams{
		Event:           string(record.Event),
		OrganizationID:  record.OrganizationID,
		Provider:        string(record.Provider),
		SocialAccountID: accountID,
		Success:         boolInt(record.Success),
		Reason:          record.Reason,
		Scopes:          joinScopes(record.Scopes),
		ExpiresAt:       nullMillis(record.ExpiresAt),
		CorrelationID:   record.CorrelationID,
		CreatedAt:       createdAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, organizationID string, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.ListAudit(ctx, queries.ListAuditParams{OrganizationID: organizationID, RowLimit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	records := make([]domain.AuditRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, auditFromRow(row))
	}
	return records, nil
}

func (s *Store) InsertWebhookEvent(ctx context.Context, event domain.WebhookEvent) (bool, error) {
	headers, err := json.Marshal(event.Headers)
	if err != nil {
		return false, fmt.Errorf("encode webhook headers: %w", err)
	}
	receivedAt := event.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}
	affected, err := s.q.InsertWebhookEvent(ctx, queries.InsertWebhookEventParams{
		OrganizationID: event.OrganizationID,
		Provider:       string(event.Provider),
		EventType:      event.EventType,
		Payload:        event.Payload,
		Headers:        string(headers),
		Signature:      event.Signature,
		IdempotencyKey: event.IdempotencyKey,
		ReceivedAt:     receivedAt.UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("insert webhook event: %w", err)
	}
	return affected == 1, nil
}

func (s *Store) IsWebhookProcessed(ctx context.Context, idempotencyKey string) (bool, error) {
	processedAt, err := s.q.GetWebhookProcessedAt(ctx, idempotencyKey)
	if err != nil {
		return false, notFound(err)
	}
	return processedAt.Valid, nil
}

func (s *Store) MarkWebhookProcessed(ctx context.Context, idempotencyKey string, processedAt time.Time) error {
	return s.q.MarkWebhookProcessed(ctx, queries.MarkWebhookProcessedParams{
		ProcessedAt:    nullMillis(&processedAt),
		IdempotencyKey: idempotencyKey,
	})
}

func (s *Store) ResolveOrganizationByExternalAccount(ctx context.Context, platform domain.Platform, externalID string) (string, error) {
	orgID, err := s.q.ResolveOrganizationByExternalAccount(ctx, queries.ResolveOrganizationByExternalAccountParams{
		Platform:   string(platform),
		ExternalID: externalID,
	})
	if err != nil {
		return "", notFound(err)
	}
	return orgID, nil
}

func (s *Store) IsPublishingPaused(ctx context.Context) (bool, error) {
	value, err := s.q.GetSystemState(ctx, publishingPausedKey)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read publishing pause flag: %w", err)
	}
	paused, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse publishing pause flag %q: %w", value, err)
	}
	return paused, nil
}

func (s *Store) SetPublishingPaused(ctx context.Context, paused bool) error {
	return s.q.SetSystemState(ctx, queries.SetSystemStateParams{
		Key:       publishingPausedKey,
		Value:     strconv.FormatBool(paused),
		UpdatedAt: s.now().UnixMilli(),
	})
}

func (s *Store) GetContentStatus(ctx context.Context, organizationID, contentItemID string) (domain.ContentStatus, error) {
	status, err := s.q.GetContentStatus(ctx, queries.GetContentStatusParams{OrganizationID: organizationID, ID: contentItemID})
	if err != nil {
		return "", notFound(err)
	}
	return domain.ContentStatus(status), nil
}

func (s *Store) UpsertContentItem(ctx context.Context, organizationID, contentItemID string, status domain.ContentStatus) error {
	return s.q.UpsertContentItem(ctx, queries.UpsertContentItemParams{
		OrganizationID: organizationID,
		ID:             contentItemID,
		Status:         string(status),
		UpdatedAt:      s.now().UnixMilli(),
	})
}

func (s *Store) IsAutopostEnabled(ctx context.Context, organizationID string) (bool, error) {
	enabled, err := s.q.GetAutopostEnabled(ctx, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return enabled != 0, nil
}

func (s *Store) SetAutopostEnabled(ctx context.Context, organizationID string, enabled bool) error {
	return s.q.SetAutopostEnabled(ctx, queries.SetAutopostEnabledParams{
		OrganizationID:  organizationID,
		AutopostEnabled: boolInt(enabled),
		UpdatedAt:       s.now().UnixMilli(),
	})
}

func (s *Store) UpsertUser(ctx context.Context, input ports.UpsertUserInput) (domain.User, error) {
	now := s.now().UnixMilli()
	row, err := s.q.UpsertUser(ctx, queries.UpsertUserParams{
		GithubID:  input.GitHubID,
		Email:     input.Email,
		Nickname:  input.Nickname,
		Name:      input.Name,
		AvatarUrl: input.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return domain.User{
		ID:        row.ID,
		GitHubID:  row.GithubID,
		Email:     row.Email,
		Nickname:  row.Nickname,
		Name:      row.Name,
		AvatarURL: row.AvatarUrl,
	}, nil
}

func (s *Store) UpsertMembership(ctx context.Context, membership domain.Membership) error {
	return s.q.UpsertMembership(ctx, queries.UpsertMembershipParams{
		OrganizationID: membership.OrganizationID,
		UserID:         membership.UserID,
		Role:           string(membership.Role),
		CreatedAt:      s.now().UnixMilli(),
	})
}

func (s *Store) ListMemberships(ctx context.Context, userID int64) ([]domain.Membership, error) {
	rows, err := s.q.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	memberships := make([]domain.Membership, 0, len(rows))
	for _, row := range rows {
		memberships = append(memberships, domain.Membership{
			OrganizationID: row.OrganizationID,
			UserID:         row.UserID,
			Role:           domain.Role(row.Role),
		})
	}
	return memberships, nil
}

var (
	_ ports.TokenStore        = (*Store)(nil)
	_ ports.AuditStore        = (*Store)(nil)
	_ ports.WebhookEventStore = (*Store)(nil)
	_ ports.AdmissionStore    = (*Store)(nil)
	_ ports.PolicyStore       = (*Store)(nil)
	_ ports.IdentityStore     = (*Store)(nil)
)
