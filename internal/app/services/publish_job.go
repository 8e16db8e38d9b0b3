package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ceevent "github.com/cloudevents/sdk-go/v2/event"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/jobs"
)

// PublishExecutor runs admitted publish jobs with the organization's token.
type PublishExecutor struct {
	tokens    *TokenService
	publisher ports.Publisher
	log       *slog.Logger
}

// NewPublishExecutor constructs the executor.
func NewPublishExecutor(tokens *TokenService, publisher ports.Publisher, log *slog.Logger) *PublishExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &PublishExecutor{tokens: tokens, publisher: publisher, log: log}
}

// Execute publishes job, refreshing the token once if the platform rejects it.
func (e *PublishExecutor) Execute(ctx context.Context, job PublishJob) (ports.PublishResult, error) {
	platform, ok := domain.ParsePlatform(job.Platform)
	if !ok {
		return ports.PublishResult{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, job.Platform)
	}
	return CallWithToken(ctx, e.tokens, job.OrganizationID, platform, func(ctx context.Context, token domain.AccessToken) (CallResult[ports.PublishResult], error) {
		result, err := e.publisher.Publish(ctx, ports.PublishRequest{
			OrganizationID: job.OrganizationID,
			ContentItemID:  job.ContentItemID,
			Platform:       platform,
			ScheduleID:     job.ScheduleID,
			AccessToken:    token.AccessToken,
			IsDummy:        token.IsDummy,
		})
		if err != nil {
			return CallResult[ports.PublishResult]{}, err
		}
		if result.NeedsRefresh {
			return CallResult[ports.PublishResult]{NeedsRefresh: true}, nil
		}
		return CallResult[ports.PublishResult]{OK: true, Value: result}, nil
	})
}

// HandleJob is the publish.execute job handler.
func (e *PublishExecutor) HandleJob(ctx context.Context, event ceevent.Event) error {
	job, err := jobs.Decode[PublishJob](event)
	if err != nil {
		return fmt.Errorf("%w: %w", jobs.ErrPermanent, err)
	}
	result, err := e.Execute(ctx, job)
	switch {
	case err == nil:
		e.log.InfoContext(ctx, "publish_done", "job_id", event.ID(), "platform", job.Platform, "external_id", result.ExternalID)
		return nil
	case errors.Is(err, ErrNoToken), errors.Is(err, ErrUnsupportedProvider), errors.Is(err, ErrStillUnauthorized), errors.Is(err, ErrRefreshSkipped):
		return fmt.Errorf("%w: %w", jobs.ErrPermanent, err)
	default:
		return err
	}
}
