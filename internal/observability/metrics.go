package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tokengate"

// Counter names exported by the service.
const (
	metricRateLimitRejected = "tokengate.ratelimit.rejected"
	metricRateLimitFailOpen = "tokengate.ratelimit.fail_open"
	metricWebhookEvents     = "tokengate.webhook.events"
	metricTokenRefresh      = "tokengate.token.refresh"
	metricOAuthCallbacks    = "tokengate.oauth.callbacks"
	metricAdmissions        = "tokengate.publish.admissions"
)

// RecordRateLimitRejected counts a request rejected by the rate limiter.
func RecordRateLimitRejected(ctx context.Context, route string) {
	add(ctx, metricRateLimitRejected, attribute.String("route", route))
}

// RecordRateLimitFailOpen counts a request admitted because the counter store failed.
func RecordRateLimitFailOpen(ctx context.Context) {
	add(ctx, metricRateLimitFailOpen)
}

// RecordWebhookEvent counts an inbound webhook by provider and outcome.
func RecordWebhookEvent(ctx context.Context, provider, outcome string) {
	add(ctx, metricWebhookEvents, attribute.String("provider", provider), attribute.String("outcome", outcome))
}

// RecordTokenRefresh counts a refresh attempt by provider, trigger and result.
func RecordTokenRefresh(ctx context.Context, provider, trigger string, success bool) {
	add(ctx, metricTokenRefresh,
		attribute.String("provider", provider),
		attribute.String("trigger", trigger),
		attribute.Bool("success", success),
	)
}

// RecordOAuthCallback counts a callback by provider and outcome.
func RecordOAuthCallback(ctx context.Context, provider, outcome string) {
	add(ctx, metricOAuthCallbacks, attribute.String("provider", provider), attribute.String("outcome", outcome))
}

// RecordAdmission counts a publish admission decision.
func RecordAdmission(ctx context.Context, platform, decision string) {
	add(ctx, metricAdmissions, attribute.String("platform", platform), attribute.String("decision", decision))
}

func add(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	counter, err := otel.Meter(meterName).Int64Counter(name)
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
