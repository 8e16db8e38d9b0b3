package ports

import (
	"context"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

// IdentityStore persists operators and their organization memberships.
type IdentityStore interface {
	UpsertUser(ctx context.Context, input UpsertUserInput) (domain.User, error)
	UpsertMembership(ctx context.Context, membership domain.Membership) error
	ListMemberships(ctx context.Context, userID int64) ([]domain.Membership, error)
}

// UpsertUserInput contains operator identity fields from the login provider.
type UpsertUserInput struct {
	GitHubID  string
	Email     string
	Nickname  string
	Name      string
	AvatarURL string
}
