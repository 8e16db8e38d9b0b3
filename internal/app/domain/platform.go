package domain

import "strings"

// Platform identifies a third-party identity provider.
type Platform string

const (
	PlatformMeta     Platform = "meta"
	PlatformLinkedIn Platform = "linkedin"
	PlatformGoogle   Platform = "google"
	PlatformYouTube  Platform = "youtube"
)

// Platforms lists every supported provider in display order.
var Platforms = []Platform{PlatformMeta, PlatformLinkedIn, PlatformGoogle, PlatformYouTube}

// ParsePlatform normalizes a provider name and reports whether it is supported.
func ParsePlatform(value string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Platforms {
		if p == known {
			return p, true
		}
	}
	return "", false
}

func (p Platform) String() string {
	return string(p)
}
