package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/observability"
)

// Auditor appends token lifecycle records. Writes are best-effort.
type Auditor struct {
	store ports.AuditStore
	log   *slog.Logger
	now   func() time.Time
}

// NewAuditor constructs an auditor over store.
func NewAuditor(store ports.AuditStore, log *slog.Logger) *Auditor {
	if log == nil {
		log = slog.Default()
	}
	return &Auditor{store: store, log: log, now: time.Now}
}

// Record appends record, filling the timestamp and correlation id from ctx.
func (a *Auditor) Record(ctx context.Context, record domain.AuditRecord) {
	if a == nil || a.store == nil {
		return
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = a.now().UTC()
	}
	if record.CorrelationID == "" {
		record.CorrelationID, _ = observability.CorrelationIDFromContext(ctx)
	}
	if err := a.store.AppendAudit(ctx, record); err != nil {
		a.log.ErrorContext(ctx, "audit_write_failed",
			"event", record.Event,
			"org_id", record.OrganizationID,
			"provider", record.Provider,
			"error", err,
		)
	}
}
