// Package publisher holds outbound publish adapters.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/observability"
)

// DryRun records publish requests without calling the platform.
type DryRun struct {
	log *slog.Logger
}

// NewDryRun constructs a dry-run publisher.
func NewDryRun(log *slog.Logger) *DryRun {
	if log == nil {
		log = slog.Default()
	}
	return &DryRun{log: log}
}

// Publish logs req and returns a synthetic external id.
func (p *DryRun) Publish(ctx context.Context, req ports.PublishRequest) (ports.PublishResult, error) {
	externalID := "dryrun-" + uuid.NewString()
	p.log.InfoContext(ctx, "publish_dry_run",
		"org_id", req.OrganizationID,
		"platform", req.Platform,
		"content_item_id", req.ContentItemID,
		"schedule_id", req.ScheduleID,
		"token", observability.RedactToken(req.AccessToken),
		"dummy", req.IsDummy,
	)
	raw, err := json.Marshal(map[string]string{"id": externalID, "mode": "dry_run"})
	if err != nil {
		return ports.PublishResult{}, err
	}
	return ports.PublishResult{ExternalID: externalID, Raw: raw}, nil
}
