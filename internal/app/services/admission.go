package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/observability"
)

const (
	// JobTypePublish is the job that performs an admitted publish.
	JobTypePublish  = "publish.execute"
	publishAttempts = 5
)

// AdmissionRequest asks to publish a content item to a platform.
type AdmissionRequest struct {
	ContentItemID  string `json:"contentItemId"`
	Platform       string `json:"platform"`
	ScheduleID     string `json:"scheduleId,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// AdmissionResult reports the queued job.
type AdmissionResult struct {
	Admitted bool   `json:"admitted"`
	JobID    string `json:"jobId"`
	Deduped  bool   `json:"deduped"`
}

// PublishJob is the payload of a publish.execute job.
type PublishJob struct {
	OrganizationID string `json:"organizationId"`
	ContentItemID  string `json:"contentItemId"`
	Platform       string `json:"platform"`
	ScheduleID     string `json:"scheduleId,omitempty"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// AdmissionGate decides whether a publish may be queued.
type AdmissionGate struct {
	store ports.AdmissionStore
	queue ports.JobQueue
	log   *slog.Logger
}

// NewAdmissionGate constructs the gate.
func NewAdmissionGate(store ports.AdmissionStore, queue ports.JobQueue, log *slog.Logger) *AdmissionGate {
	if log == nil {
		log = slog.Default()
	}
	return &AdmissionGate{store: store, queue: queue, log: log}
}

// PublishIdempotencyKey is publish:<scheduleId>:<platform>, or a random key
// when no schedule is given.
func PublishIdempotencyKey(scheduleID string, platform domain.Platform) string {
	if scheduleID == "" {
		return "publish:adhoc:" + uuid.NewString()
	}
	return "publish:" + scheduleID + ":" + platform.String()
}

// Admit evaluates the pause switch, then content approval and autopost policy,
// and queues the job under its idempotency key.
func (g *AdmissionGate) Admit(ctx context.Context, req AdmissionRequest) (AdmissionResult, error) {
	platform, ok := domain.ParsePlatform(req.Platform)
	if !ok {
		return AdmissionResult{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, req.Platform)
	}
	req.ContentItemID = strings.TrimSpace(req.ContentItemID)
	req.ScheduleID = strings.TrimSpace(req.ScheduleID)
	req.OrganizationID = strings.TrimSpace(req.OrganizationID)
	if req.ContentItemID == "" {
		return AdmissionResult{}, fmt.Errorf("%w: contentItemId required", ErrInvalidRequest)
	}

	paused, err := g.store.IsPublishingPaused(ctx)
	if err != nil {
		return AdmissionResult{}, fmt.Errorf("read publishing pause: %w", err)
	}
	if paused {
		return g.reject(ctx, platform, ErrPublishingPaused)
	}

	if req.OrganizationID != "" {
		status, err := g.store.GetContentStatus(ctx, req.OrganizationID, req.ContentItemID)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return AdmissionResult{}, fmt.Errorf("read content status: %w", err)
		}
		if status != domain.ContentApproved {
			return g.reject(ctx, platform, ErrContentNotApproved)
		}
		enabled, err := g.store.IsAutopostEnabled(ctx, req.OrganizationID)
		if err != nil {
			return AdmissionResult{}, fmt.Errorf("read autopost policy: %w", err)
		}
		if !enabled {
			return g.reject(ctx, platform, ErrAutopostDisabled)
		}
	}

	key := PublishIdempotencyKey(req.ScheduleID, platform)
	queued, err := g.queue.Enqueue(ctx, ports.EnqueueRequest{
		ID:   key,
		Type: JobTypePublish,
		Payload: PublishJob{
			OrganizationID: req.OrganizationID,
			ContentItemID:  req.ContentItemID,
			Platform:       platform.String(),
			ScheduleID:     req.ScheduleID,
			IdempotencyKey: key,
		},
		MaxAttempts: publishAttempts,
	})
	if err != nil {
		return AdmissionResult{}, fmt.Errorf("enqueue publish job: %w", err)
	}
	decision := "admitted"
	if queued.Deduped {
		decision = "deduped"
	}
	observability.RecordAdmission(ctx, platform.String(), decision)
	g.log.InfoContext(ctx, "publish_admitted", "platform", platform, "job_id", queued.JobID, "deduped", queued.Deduped)
	return AdmissionResult{Admitted: true, JobID: queued.JobID, Deduped: queued.Deduped}, nil
}

func (g *AdmissionGate) reject(ctx context.Context, platform domain.Platform, reason error) (AdmissionResult, error) {
	observability.RecordAdmission(ctx, platform.String(), reason.Error())
	g.log.InfoContext(ctx, "publish_rejected", "platform", platform, "reason", reason.Error())
	return AdmissionResult{}, reason
}
