package sqlite

import (
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/db/queries"
)

func socialAccountFromRow(row queries.SocialAccount) domain.SocialAccount {
	return domain.SocialAccount{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Platform:       domain.Platform(row.Platform),
		ExternalID:     row.ExternalID,
		DisplayName:    row.DisplayName,
		CreatedAt:      time.UnixMilli(row.CreatedAt),
	}
}

// tokenFromRow accepts LatestTokenRow; the other latest-token row types
// share its shape and convert directly.
func tokenFromRow(row queries.LatestTokenRow) domain.StoredToken {
	return domain.StoredToken{
		ID:                    row.ID,
		SocialAccountID:       row.SocialAccountID,
		OrganizationID:        row.OrganizationID,
		Platform:              domain.Platform(row.Platform),
		AccessTokenEncrypted:  row.AccessTokenEncrypted,
		RefreshTokenEncrypted: row.RefreshTokenEncrypted,
		ExpiresAt:             millisPtr(row.ExpiresAt),
		Scopes:                splitScopes(row.Scopes),
		IsDummy:               row.IsDummy != 0,
		CreatedAt:             time.UnixMilli(row.CreatedAt),
	}
}

func auditFromRow(row queries.TokenAudit) domain.AuditRecord {
	return domain.AuditRecord{
		ID:              row.ID,
		Event:           domain.AuditEvent(row.Event),
		OrganizationID:  row.OrganizationID,
		Provider:        domain.Platform(row.Provider),
		SocialAccountID: row.SocialAccountID.Int64,
		Success:         row.Success != 0,
		Reason:          row.Reason,
		Scopes:          splitScopes(row.Scopes),
		ExpiresAt:       millisPtr(row.ExpiresAt),
		CorrelationID:   row.CorrelationID,
		CreatedAt:       time.UnixMilli(row.CreatedAt),
	}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	return err
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func millisPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

func boolInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// joinScopes stores scopes sorted and de-duplicated as a comma list.
func joinScopes(scopes []string) string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		out = append(out, scope)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func splitScopes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
