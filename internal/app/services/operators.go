package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
)

// ErrOrganizationMembershipRequired is returned when an operator has no organization membership yet.
var ErrOrganizationMembershipRequired = errors.New("membership_required")

// ErrOrganizationAccessDenied is returned when an operator acts outside their organization.
var ErrOrganizationAccessDenied = errors.New("organization_access_denied")

// ErrOrganizationAdminRequired is returned when an owner or admin role is required.
var ErrOrganizationAdminRequired = errors.New("organization_admin_required")

// ErrSystemOperatorRequired is returned when a system-wide switch is changed by an operator
// who is not on the system operator allow-list.
var ErrSystemOperatorRequired = errors.New("system_operator_required")

// SystemOperators is the allow-list of operator emails that may change system-wide policy.
// Organization roles never grant this.
type SystemOperators map[string]struct{}

// NewSystemOperators builds the allow-list from configured emails.
func NewSystemOperators(emails []string) SystemOperators {
	out := make(SystemOperators, len(emails))
	for _, email := range emails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			out[email] = struct{}{}
		}
	}
	return out
}

// Require returns ErrSystemOperatorRequired unless email is allow-listed.
func (s SystemOperators) Require(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrSystemOperatorRequired
	}
	if _, ok := s[email]; !ok {
		return ErrSystemOperatorRequired
	}
	return nil
}

// OperatorService resolves operators and their organization roles.
type OperatorService struct {
	store ports.IdentityStore
}

// NewOperatorService constructs the operator service.
func NewOperatorService(store ports.IdentityStore) *OperatorService {
	return &OperatorService{store: store}
}

// OperatorLogin is the identity reported by the login provider.
type OperatorLogin struct {
	ProviderUserID string
	Email          string
	Nickname       string
	Name           string
	AvatarURL      string
	// BootstrapOrganizationID grants owner membership when the operator has none.
	BootstrapOrganizationID string
}

// Operator is a signed-in user with the membership selected for the session.
type Operator struct {
	User       domain.User
	Membership domain.Membership
}

// SignIn upserts the operator and selects their active membership.
func (s *OperatorService) SignIn(ctx context.Context, login OperatorLogin) (Operator, error) {
	email := strings.TrimSpace(login.Email)
	nickname := strings.TrimSpace(login.Nickname)
	if email == "" {
		if nickname == "" {
			nickname = "user"
		}
		email = strings.ToLower(nickname) + "@local.invalid"
	}
	if nickname == "" {
		nickname = strings.Split(email, "@")[0]
	}
	name := strings.TrimSpace(login.Name)
	if name == "" {
		name = nickname
	}
	providerID := strings.TrimSpace(login.ProviderUserID)
	if providerID == "" {
		providerID = "session:" + strings.ToLower(email)
	}

	user, err := s.store.UpsertUser(ctx, ports.UpsertUserInput{
		GitHubID:  providerID,
		Email:     email,
		Nickname:  nickname,
		Name:      name,
		AvatarURL: strings.TrimSpace(login.AvatarURL),
	})
	if err != nil {
		return Operator{}, err
	}

	memberships, err := s.store.ListMemberships(ctx, user.ID)
	if err != nil {
		return Operator{}, fmt.Errorf("list memberships: %w", err)
	}
	if len(memberships) == 0 && strings.TrimSpace(login.BootstrapOrganizationID) != "" {
		owner := domain.Membership{UserID: user.ID, OrganizationID: strings.TrimSpace(login.BootstrapOrganizationID), Role: domain.RoleOwner}
		if err := s.store.UpsertMembership(ctx, owner); err != nil {
			return Operator{}, fmt.Errorf("bootstrap membership: %w", err)
		}
		memberships = append(memberships, owner)
	}
	membership, err := ActiveMembership(memberships, "")
	if err != nil {
		return Operator{User: user}, err
	}
	return Operator{User: user, Membership: membership}, nil
}

// SwitchOrganization selects another organization the operator belongs to.
func (s *OperatorService) SwitchOrganization(ctx context.Context, userID int64, organizationID string) (domain.Membership, error) {
	if userID <= 0 {
		return domain.Membership{}, ErrOrganizationAccessDenied
	}
	memberships, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("list memberships: %w", err)
	}
	membership, err := ActiveMembership(memberships, organizationID)
	if err != nil {
		return domain.Membership{}, err
	}
	if membership.OrganizationID != organizationID {
		return domain.Membership{}, ErrOrganizationAccessDenied
	}
	return membership, nil
}

// Grant adds or updates a membership.
func (s *OperatorService) Grant(ctx context.Context, membership domain.Membership) error {
	switch membership.Role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember:
	default:
		return fmt.Errorf("%w: role %q", ErrInvalidRequest, membership.Role)
	}
	if membership.UserID <= 0 || strings.TrimSpace(membership.OrganizationID) == "" {
		return fmt.Errorf("%w: user and organization required", ErrInvalidRequest)
	}
	return s.store.UpsertMembership(ctx, membership)
}

// ActiveMembership returns the membership for preferred, or the first one
// when preferred is empty or unknown.
func ActiveMembership(memberships []domain.Membership, preferred string) (domain.Membership, error) {
	if len(memberships) == 0 {
		return domain.Membership{}, ErrOrganizationMembershipRequired
	}
	for _, m := range memberships {
		if preferred != "" && m.OrganizationID == preferred {
			return m, nil
		}
	}
	return memberships[0], nil
}

// RequireManager rejects roles that may not connect accounts or change policy.
func RequireManager(role domain.Role) error {
	if !role.CanManageIntegrations() {
		return ErrOrganizationAdminRequired
	}
	return nil
}
