package ports

import (
	"context"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

// WebhookEventStore persists verified inbound webhook events exactly once per idempotency key.
type WebhookEventStore interface {
	// InsertWebhookEvent returns inserted=false when the idempotency key already exists.
	InsertWebhookEvent(ctx context.Context, event domain.WebhookEvent) (bool, error)
	// IsWebhookProcessed reports whether the event was handed to the job queue.
	IsWebhookProcessed(ctx context.Context, idempotencyKey string) (bool, error)
	MarkWebhookProcessed(ctx context.Context, idempotencyKey string, processedAt time.Time) error
	ResolveOrganizationByExternalAccount(ctx context.Context, platform domain.Platform, externalID string) (string, error)
}
