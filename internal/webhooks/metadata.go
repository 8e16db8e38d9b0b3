package webhooks

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

// Metadata is the routing information extracted from a webhook payload.
type Metadata struct {
	ExternalAccountID string
	EventType         string
}

type metadataPaths struct {
	account   []string
	eventType []string
	fallback  string
}

var payloadPaths = map[domain.Platform]metadataPaths{
	domain.PlatformMeta: {
		account:   []string{"entry.0.id"},
		eventType: []string{"entry.0.changes.0.field", "object"},
		fallback:  "page",
	},
	domain.PlatformLinkedIn: {
		account:   []string{"organizationalEntity", "owner", "actor"},
		eventType: []string{"type", "eventType"},
		fallback:  "notification",
	},
	domain.PlatformGoogle: {
		account:   []string{"locationName", "location.name", "accountId"},
		eventType: []string{"notificationType", "type"},
		fallback:  "notification",
	},
	domain.PlatformYouTube: {
		account:   []string{"channelId", "feed.entry.channelId"},
		eventType: []string{"type", "kind"},
		fallback:  "video",
	},
}

// ExtractMetadata reads the external account id and event type from body.
// Non-JSON bodies yield the platform's fallback event type and no account.
func ExtractMetadata(platform domain.Platform, body []byte) Metadata {
	paths, ok := payloadPaths[platform]
	if !ok {
		return Metadata{EventType: "unknown"}
	}
	meta := Metadata{EventType: paths.fallback}
	if !gjson.ValidBytes(body) {
		return meta
	}
	parsed := gjson.ParseBytes(body)
	meta.ExternalAccountID = first(parsed, paths.account)
	if eventType := first(parsed, paths.eventType); eventType != "" {
		meta.EventType = eventType
	}
	return meta
}

func first(parsed gjson.Result, paths []string) string {
	for _, path := range paths {
		if value := strings.TrimSpace(parsed.Get(path).String()); value != "" {
			return value
		}
	}
	return ""
}

// SafeHeaders copies request headers worth persisting, dropping credentials.
func SafeHeaders(header map[string][]string) map[string]string {
	out := make(map[string]string, len(header))
	for name, values := range header {
		switch strings.ToLower(name) {
		case "authorization", "cookie", "x-api-key":
			continue
		}
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}
