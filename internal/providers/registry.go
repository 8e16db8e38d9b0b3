package providers

import (
	"net/http"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

type constructor func(Credentials, *http.Client) Strategy

var constructors = map[domain.Platform]constructor{
	domain.PlatformMeta:     NewMeta,
	domain.PlatformLinkedIn: NewLinkedIn,
	domain.PlatformGoogle:   NewGoogle,
	domain.PlatformYouTube:  NewYouTube,
}

// Registry is the lookup table from platform to strategy.
type Registry struct {
	strategies map[domain.Platform]Strategy
}

// NewRegistry registers a strategy for every platform with configured credentials.
func NewRegistry(creds map[domain.Platform]Credentials, client *http.Client) *Registry {
	r := &Registry{strategies: make(map[domain.Platform]Strategy, len(creds))}
	for platform, c := range creds {
		build, ok := constructors[platform]
		if !ok || !c.Configured() {
			continue
		}
		r.strategies[platform] = build(c, client)
	}
	return r
}

// Register adds or replaces a strategy.
func (r *Registry) Register(strategy Strategy) {
	r.strategies[strategy.Platform()] = strategy
}

// Lookup returns the strategy for platform, if configured.
func (r *Registry) Lookup(platform domain.Platform) (Strategy, bool) {
	s, ok := r.strategies[platform]
	return s, ok
}
