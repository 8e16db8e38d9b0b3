package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	ceevent "github.com/cloudevents/sdk-go/v2/event"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/jobs"
	"github.com/fr0stylo/tokengate/internal/observability"
	"github.com/fr0stylo/tokengate/internal/webhooks"
)

// JobTypeWebhookReceived is the job dispatched for every new webhook event.
const JobTypeWebhookReceived = "webhook.received"

// WebhookSecrets are the per-platform webhook settings.
type WebhookSecrets struct {
	Secret      string
	VerifyToken string
}

// WebhookGate verifies, deduplicates and dispatches inbound platform webhooks.
type WebhookGate struct {
	events  ports.WebhookEventStore
	queue   ports.JobQueue
	secrets map[domain.Platform]WebhookSecrets
	log     *slog.Logger
	now     func() time.Time
}

// NewWebhookGate constructs the gate.
func NewWebhookGate(events ports.WebhookEventStore, queue ports.JobQueue, secrets map[domain.Platform]WebhookSecrets, log *slog.Logger) *WebhookGate {
	if secrets == nil {
		secrets = map[domain.Platform]WebhookSecrets{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &WebhookGate{events: events, queue: queue, secrets: secrets, log: log, now: time.Now}
}

// WebhookReceipt acknowledges an accepted delivery.
type WebhookReceipt struct {
	IdempotencyKey string
	Duplicate      bool
}

// WebhookJob is the payload of a webhook.received job.
type WebhookJob struct {
	Provider       string `json:"provider"`
	OrganizationID string `json:"orgId"`
	EventType      string `json:"eventType"`
	IdempotencyKey string `json:"idemKey"`
}

func (g *WebhookGate) scheme(provider string) (domain.Platform, webhooks.Scheme, error) {
	platform, ok := domain.ParsePlatform(provider)
	if !ok {
		return "", webhooks.Scheme{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	scheme, ok := webhooks.SchemeFor(platform)
	if !ok {
		return "", webhooks.Scheme{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, platform)
	}
	return platform, scheme, nil
}

// Receive verifies body and persists it once per (body, signature).
func (g *WebhookGate) Receive(ctx context.Context, provider string, body []byte, header http.Header) (WebhookReceipt, error) {
	platform, scheme, err := g.scheme(provider)
	if err != nil {
		return WebhookReceipt{}, err
	}
	signature := scheme.Signature(header)
	if secret := g.secrets[platform].Secret; secret != "" {
		if err := scheme.Verify(secret, body, signature); err != nil {
			observability.RecordWebhookEvent(ctx, platform.String(), "rejected")
			g.log.WarnContext(ctx, "webhook_signature_rejected", "provider", platform, "has_signature", signature != "")
			return WebhookReceipt{}, ErrInvalidSignature
		}
	}

	key := webhooks.IdempotencyKey(body, signature)
	meta := webhooks.ExtractMetadata(platform, body)
	orgID := g.resolveOrganization(ctx, platform, meta.ExternalAccountID)

	inserted, err := g.events.InsertWebhookEvent(ctx, domain.WebhookEvent{
		OrganizationID: orgID,
		Provider:       platform,
		EventType:      meta.EventType,
		Payload:        body,
		Headers:        webhooks.SafeHeaders(header),
		Signature:      signature,
		IdempotencyKey: key,
		ReceivedAt:     g.now().UTC(),
	})
	if err != nil {
		return WebhookReceipt{}, fmt.Errorf("persist webhook event: %w", err)
	}
	job := WebhookJob{
		Provider:       platform.String(),
		OrganizationID: orgID,
		EventType:      meta.EventType,
		IdempotencyKey: key,
	}
	if !inserted {
		observability.RecordWebhookEvent(ctx, platform.String(), "duplicate")
		processed, err := g.events.IsWebhookProcessed(ctx, key)
		if err != nil {
			return WebhookReceipt{}, fmt.Errorf("lookup webhook event: %w", err)
		}
		if !processed {
			// A previous delivery was stored but never queued.
			if err := g.dispatch(ctx, job); err != nil {
				return WebhookReceipt{}, err
			}
		}
		return WebhookReceipt{IdempotencyKey: key, Duplicate: true}, nil
	}

	if err := g.dispatch(ctx, job); err != nil {
		return WebhookReceipt{}, err
	}
	observability.RecordWebhookEvent(ctx, platform.String(), "accepted")
	g.log.InfoContext(ctx, "webhook_accepted", "provider", platform, "org_id", orgID, "event_type", meta.EventType, "idem_key", key)
	return WebhookReceipt{IdempotencyKey: key}, nil
}

// dispatch queues the event and only then marks it processed, so a failed
// enqueue leaves the row eligible for redelivery by the provider's retry.
func (g *WebhookGate) dispatch(ctx context.Context, job WebhookJob) error {
	if _, err := g.queue.Enqueue(ctx, ports.EnqueueRequest{
		ID:      job.IdempotencyKey,
		Type:    JobTypeWebhookReceived,
		Payload: job,
	}); err != nil {
		g.log.ErrorContext(ctx, "webhook_enqueue_failed", "provider", job.Provider, "idem_key", job.IdempotencyKey, "error", err)
		return fmt.Errorf("enqueue webhook event: %w", err)
	}
	if err := g.events.MarkWebhookProcessed(ctx, job.IdempotencyKey, g.now().UTC()); err != nil {
		g.log.WarnContext(ctx, "webhook_mark_processed_failed", "provider", job.Provider, "idem_key", job.IdempotencyKey, "error", err)
	}
	return nil
}

func (g *WebhookGate) resolveOrganization(ctx context.Context, platform domain.Platform, externalID string) string {
	if externalID == "" {
		return domain.UnknownOrganization
	}
	orgID, err := g.events.ResolveOrganizationByExternalAccount(ctx, platform, externalID)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			g.log.WarnContext(ctx, "webhook_org_lookup_failed", "provider", platform, "error", err)
		}
		return domain.UnknownOrganization
	}
	return orgID
}

// HandshakeResponse is the answer to a subscription verification request.
// Exactly one of Text or JSON is set when Status is 200.
type HandshakeResponse struct {
	Status int
	Text   string
	JSON   any
}

// Handshake answers GET verification requests.
func (g *WebhookGate) Handshake(provider string, query url.Values) (HandshakeResponse, error) {
	platform, _, err := g.scheme(provider)
	if err != nil {
		return HandshakeResponse{}, err
	}
	settings := g.secrets[platform]
	switch platform {
	case domain.PlatformMeta, domain.PlatformYouTube:
		if query.Get("hub.mode") != "subscribe" {
			return HandshakeResponse{Status: http.StatusBadRequest}, nil
		}
		token := query.Get("hub.verify_token")
		accept := settings.VerifyToken != "" && token == settings.VerifyToken
		if platform == domain.PlatformYouTube && settings.VerifyToken == "" {
			accept = true
		}
		if !accept {
			return HandshakeResponse{Status: http.StatusForbidden}, nil
		}
		return HandshakeResponse{Status: http.StatusOK, Text: query.Get("hub.challenge")}, nil
	case domain.PlatformLinkedIn:
		challenge := query.Get("challengeCode")
		if challenge == "" {
			return HandshakeResponse{Status: http.StatusBadRequest}, nil
		}
		return HandshakeResponse{Status: http.StatusOK, JSON: map[string]string{
			"challengeCode":     challenge,
			"challengeResponse": webhooks.ChallengeResponse(settings.Secret, challenge),
		}}, nil
	default:
		return HandshakeResponse{Status: http.StatusNotFound}, nil
	}
}

// HandleJob is the webhook.received job handler.
func (g *WebhookGate) HandleJob(ctx context.Context, event ceevent.Event) error {
	job, err := jobs.Decode[WebhookJob](event)
	if err != nil {
		return fmt.Errorf("%w: %w", jobs.ErrPermanent, err)
	}
	g.log.InfoContext(ctx, "webhook_dispatched",
		"provider", job.Provider,
		"org_id", job.OrganizationID,
		"event_type", job.EventType,
		"idem_key", job.IdempotencyKey,
	)
	return nil
}
