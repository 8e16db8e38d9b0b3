package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
)

// PolicyService changes the switches consulted by publish admission.
type PolicyService struct {
	store ports.PolicyStore
	log   *slog.Logger
}

// NewPolicyService constructs the policy service.
func NewPolicyService(store ports.PolicyStore, log *slog.Logger) *PolicyService {
	if log == nil {
		log = slog.Default()
	}
	return &PolicyService{store: store, log: log}
}

// SetPublishingPaused flips the global publishing kill switch.
func (s *PolicyService) SetPublishingPaused(ctx context.Context, paused bool, actor string) error {
	if err := s.store.SetPublishingPaused(ctx, paused); err != nil {
		return fmt.Errorf("set publishing paused: %w", err)
	}
	s.log.WarnContext(ctx, "publishing_pause_changed", "paused", paused, "actor", actor)
	return nil
}

// SetAutopost enables or disables automatic publishing for an organization.
func (s *PolicyService) SetAutopost(ctx context.Context, organizationID string, enabled bool) error {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return fmt.Errorf("%w: organization required", ErrInvalidRequest)
	}
	if err := s.store.SetAutopostEnabled(ctx, organizationID, enabled); err != nil {
		return fmt.Errorf("set autopost: %w", err)
	}
	s.log.InfoContext(ctx, "autopost_changed", "org_id", organizationID, "enabled", enabled)
	return nil
}

// SetContentStatus records the review state of a content item.
func (s *PolicyService) SetContentStatus(ctx context.Context, organizationID, contentItemID string, status domain.ContentStatus) error {
	switch status {
	case domain.ContentDraft, domain.ContentPendingReview, domain.ContentApproved, domain.ContentRejected:
	default:
		return fmt.Errorf("%w: content status %q", ErrInvalidRequest, status)
	}
	if strings.TrimSpace(organizationID) == "" || strings.TrimSpace(contentItemID) == "" {
		return fmt.Errorf("%w: organization and content item required", ErrInvalidRequest)
	}
	if err := s.store.UpsertContentItem(ctx, organizationID, contentItemID, status); err != nil {
		return fmt.Errorf("set content status: %w", err)
	}
	return nil
}
