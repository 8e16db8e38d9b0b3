package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	portmocks "github.com/fr0stylo/tokengate/internal/app/ports/mocks"
	"github.com/fr0stylo/tokengate/internal/webhooks"
)

const metaBody = `{"object":"page","entry":[{"id":"page-1","changes":[{"field":"feed"}]}]}`

func signedMetaHeader(t *testing.T, secret, body string) http.Header {
	t.Helper()
	scheme, ok := webhooks.SchemeFor(domain.PlatformMeta)
	require.True(t, ok)
	header := http.Header{}
	header.Set("X-Hub-Signature-256", scheme.Sign(secret, []byte(body)))
	header.Set("Authorization", "Bearer leak")
	return header
}

func TestWebhookReceiveRejectsBadSignature(t *testing.T) {
	events := portmocks.NewMockWebhookEventStore(t)
	queue := portmocks.NewMockJobQueue(t)
	gate := NewWebhookGate(events, queue, map[domain.Platform]WebhookSecrets{domain.PlatformMeta: {Secret: "s3cret"}}, discardLogger())

	header := signedMetaHeader(t, "other", metaBody)
	_, err := gate.Receive(context.Background(), "meta", []byte(metaBody), header)
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.Equal(t, ErrorSignature, ClassifyError(err))

	_, err = gate.Receive(context.Background(), "meta", []byte(metaBody), http.Header{})
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhookReceivePersistsAndEnqueuesNewEvent(t *testing.T) {
	events := portmocks.NewMockWebhookEventStore(t)
	queue := portmocks.NewMockJobQueue(t)
	gate := NewWebhookGate(events, queue, map[domain.Platform]WebhookSecrets{domain.PlatformMeta: {Secret: "s3cret"}}, discardLogger())
	header := signedMetaHeader(t, "s3cret", metaBody)
	key := webhooks.IdempotencyKey([]byte(metaBody), header.Get("X-Hub-Signature-256"))

	events.EXPECT().ResolveOrganizationByExternalAccount(mock.Anything, domain.PlatformMeta, "page-1").Return("org1", nil)
	events.EXPECT().InsertWebhookEvent(mock.Anything, mock.MatchedBy(func(event domain.WebhookEvent) bool {
		_, leaked := event.Headers["Authorization"]
		return event.OrganizationID == "org1" &&
			event.EventType == "feed" &&
			event.IdempotencyKey == key &&
			!leaked
	})).Return(true, nil)
	enqueue := queue.EXPECT().Enqueue(mock.Anything, mock.MatchedBy(func(req ports.EnqueueRequest) bool {
		job, ok := req.Payload.(WebhookJob)
		return ok && req.ID == key && req.Type == JobTypeWebhookReceived && job.OrganizationID == "org1"
	})).Return(ports.EnqueueResult{JobID: key}, nil).Call
	events.EXPECT().MarkWebhookProcessed(mock.Anything, key, mock.Anything).Return(nil).NotBefore(enqueue)

	receipt, err := gate.Receive(context.Background(), "meta", []byte(metaBody), header)
	require.NoError(t, err)
	require.Equal(t, key, receipt.IdempotencyKey)
	require.False(t, receipt.Duplicate)
}

func TestWebhookReceiveDuplicateIsAcknowledgedWithoutEnqueue(t *testing.T) {
	events := portmocks.NewMockWebhookEventStore(t)
	queue := portmocks.NewMockJobQueue(t)
	gate := NewWebhookGate(events, queue, nil, discardLogger())

	events.EXPECT().ResolveOrganizationByExternalAccount(mock.Anything, domain.PlatformMeta, "page-1").Return("", ports.ErrNotFound)
	events.EXPECT().InsertWebhookEvent(mock.Anything, mock.MatchedBy(func(event domain.WebhookEvent) bool {
		return event.OrganizationID == domain.UnknownOrganization
	})).Return(false, nil)
	events.EXPECT().IsWebhookProcessed(mock.Anything, mock.Anything).Return(true, nil)

	receipt, err := gate.Receive(context.Background(), "meta", []byte(metaBody), http.Header{})
	require.NoError(t, err)
	require.True(t, receipt.Duplicate)
}

func TestWebhookReceiveFailedEnqueueIsRetriedOnRedelivery(t *testing.T) {
	events := portmocks.NewMockWebhookEventStore(t)
	queue := portmocks.NewMockJobQueue(t)
	gate := NewWebhookGate(events, queue, nil, discardLogger())
	key := webhooks.IdempotencyKey([]byte(metaBody), "")

	events.EXPECT().ResolveOrganizationByExternalAccount(mock.Anything, domain.PlatformMeta, "page-1").Return("org1", nil)
	events.EXPECT().InsertWebhookEvent(mock.Anything, mock.Anything).Return(true, nil).Once()
	queue.EXPECT().Enqueue(mock.Anything, mock.Anything).Return(ports.EnqueueResult{}, errors.New("queue full")).Once()

	_, err := gate.Receive(context.Background(), "meta", []byte(metaBody), http.Header{})
	require.Error(t, err)
	require.Equal(t, "internal_error", ErrorCode(err))
	events.AssertNotCalled(t, "MarkWebhookProcessed", mock.Anything, mock.Anything, mock.Anything)

	// The provider retries the same delivery: the row exists but was never queued.
	events.EXPECT().InsertWebhookEvent(mock.Anything, mock.Anything).Return(false, nil).Once()
	events.EXPECT().IsWebhookProcessed(mock.Anything, key).Return(false, nil).Once()
	queue.EXPECT().Enqueue(mock.Anything, mock.MatchedBy(func(req ports.EnqueueRequest) bool {
		return req.ID == key && req.Type == JobTypeWebhookReceived
	})).Return(ports.EnqueueResult{JobID: key}, nil).Once()
	events.EXPECT().MarkWebhookProcessed(mock.Anything, key, mock.Anything).Return(nil).Once()

	receipt, err := gate.Receive(context.Background(), "meta", []byte(metaBody), http.Header{})
	require.NoError(t, err)
	require.True(t, receipt.Duplicate)
	require.Equal(t, key, receipt.IdempotencyKey)
}

func TestWebhookReceiveStoreFailure(t *testing.T) {
	events := portmocks.NewMockWebhookEventStore(t)
	gate := NewWebhookGate(events, portmocks.NewMockJobQueue(t), nil, discardLogger())

	events.EXPECT().InsertWebhookEvent(mock.Anything, mock.Anything).Return(false, errors.New("disk full"))
	_, err := gate.Receive(context.Background(), "linkedin", []byte(`{}`), http.Header{})
	require.Error(t, err)
	require.Equal(t, "internal_error", ErrorCode(err))
}

func TestWebhookReceiveUnknownProvider(t *testing.T) {
	gate := NewWebhookGate(portmocks.NewMockWebhookEventStore(t), portmocks.NewMockJobQueue(t), nil, discardLogger())
	_, err := gate.Receive(context.Background(), "myspace", []byte(`{}`), http.Header{})
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestWebhookHandshake(t *testing.T) {
	gate := NewWebhookGate(nil, nil, map[domain.Platform]WebhookSecrets{
		domain.PlatformMeta:     {VerifyToken: "vt"},
		domain.PlatformLinkedIn: {Secret: "li-secret"},
	}, discardLogger())

	cases := []struct {
		name     string
		provider string
		query    url.Values
		status   int
		text     string
	}{
		{name: "meta subscribe", provider: "meta", query: url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"vt"}, "hub.challenge": {"c1"}}, status: http.StatusOK, text: "c1"},
		{name: "meta wrong token", provider: "meta", query: url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"nope"}}, status: http.StatusForbidden},
		{name: "meta wrong mode", provider: "meta", query: url.Values{"hub.mode": {"unsubscribe"}}, status: http.StatusBadRequest},
		{name: "youtube open", provider: "youtube", query: url.Values{"hub.mode": {"subscribe"}, "hub.challenge": {"yt"}}, status: http.StatusOK, text: "yt"},
		{name: "linkedin missing code", provider: "linkedin", query: url.Values{}, status: http.StatusBadRequest},
		{name: "google unsupported", provider: "google", query: url.Values{}, status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := gate.Handshake(tc.provider, tc.query)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.Status)
			require.Equal(t, tc.text, resp.Text)
		})
	}

	resp, err := gate.Handshake("linkedin", url.Values{"challengeCode": {"abc"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, map[string]string{
		"challengeCode":     "abc",
		"challengeResponse": webhooks.ChallengeResponse("li-secret", "abc"),
	}, resp.JSON)
}
