package ports

import (
	"context"
	"encoding/json"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

// AdmissionStore exposes the durable facts consulted by publish admission.
type AdmissionStore interface {
	IsPublishingPaused(ctx context.Context) (bool, error)
	GetContentStatus(ctx context.Context, organizationID, contentItemID string) (domain.ContentStatus, error)
	IsAutopostEnabled(ctx context.Context, organizationID string) (bool, error)
}

// PolicyStore mutates the operator-controlled switches read by admission.
type PolicyStore interface {
	SetPublishingPaused(ctx context.Context, paused bool) error
	SetAutopostEnabled(ctx context.Context, organizationID string, enabled bool) error
	UpsertContentItem(ctx context.Context, organizationID, contentItemID string, status domain.ContentStatus) error
}

// EnqueueRequest describes one job hand-off to the background queue.
type EnqueueRequest struct {
	ID          string
	Type        string
	Payload     any
	MaxAttempts int
}

// EnqueueResult reports the job id and whether the id had already been queued.
type EnqueueResult struct {
	JobID   string
	Deduped bool
}

// JobQueue is an at-most-once-per-id background job queue.
type JobQueue interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResult, error)
}

// PublishRequest is the decrypted call a publisher performs for an admitted job.
type PublishRequest struct {
	OrganizationID string
	ContentItemID  string
	Platform       domain.Platform
	ScheduleID     string
	AccessToken    string
	IsDummy        bool
}

// Publisher performs the outbound platform call. It reports unauthorized
// responses through NeedsRefresh rather than an error.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (PublishResult, error)
}

// PublishResult is the outcome of one publish attempt.
type PublishResult struct {
	NeedsRefresh bool
	ExternalID   string
	Raw          json.RawMessage
}
