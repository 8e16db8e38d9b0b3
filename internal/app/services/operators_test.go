package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fr0stylo/tokengate/internal/adapters/sqlite"
	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/db"
)

func newOperatorService(t *testing.T) (*OperatorService, *sqlite.Store) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "operators-test"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	store := sqlite.NewStore(database)
	return NewOperatorService(store), store
}

func TestSignInWithoutMembershipRequiresOne(t *testing.T) {
	svc, _ := newOperatorService(t)
	operator, err := svc.SignIn(context.Background(), OperatorLogin{ProviderUserID: "gh-1", Nickname: "ada"})
	if !errors.Is(err, ErrOrganizationMembershipRequired) {
		t.Fatalf("expected membership required, got %v", err)
	}
	if operator.User.ID == 0 || operator.User.Email != "ada@local.invalid" {
		t.Fatalf("expected user to be stored, got %+v", operator.User)
	}
}

func TestSignInBootstrapsOwnerMembership(t *testing.T) {
	svc, _ := newOperatorService(t)
	ctx := context.Background()
	operator, err := svc.SignIn(ctx, OperatorLogin{ProviderUserID: "dev:ada", Email: "ada@example.local", BootstrapOrganizationID: "org1"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if operator.Membership.OrganizationID != "org1" || operator.Membership.Role != domain.RoleOwner {
		t.Fatalf("unexpected membership %+v", operator.Membership)
	}

	if err := svc.Grant(ctx, domain.Membership{UserID: operator.User.ID, OrganizationID: "org2", Role: domain.RoleMember}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	again, err := svc.SignIn(ctx, OperatorLogin{ProviderUserID: "dev:ada", Email: "ada@example.local", BootstrapOrganizationID: "org9"})
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if again.User.ID != operator.User.ID {
		t.Fatal("expected the same user on second sign in")
	}

	switched, err := svc.SwitchOrganization(ctx, operator.User.ID, "org2")
	if err != nil || switched.Role != domain.RoleMember {
		t.Fatalf("unexpected switch result %+v err=%v", switched, err)
	}
	if _, err := svc.SwitchOrganization(ctx, operator.User.ID, "org9"); !errors.Is(err, ErrOrganizationAccessDenied) {
		t.Fatalf("expected access denied for bootstrap org on second login, got %v", err)
	}
}

func TestGrantValidatesRole(t *testing.T) {
	svc, _ := newOperatorService(t)
	err := svc.Grant(context.Background(), domain.Membership{UserID: 1, OrganizationID: "org1", Role: "root"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestRequireManager(t *testing.T) {
	if err := RequireManager(domain.RoleAdmin); err != nil {
		t.Fatalf("admin should manage: %v", err)
	}
	if err := RequireManager(domain.RoleMember); !errors.Is(err, ErrOrganizationAdminRequired) {
		t.Fatalf("expected admin required, got %v", err)
	}
}

func TestPolicyServiceDrivesAdmission(t *testing.T) {
	_, store := newOperatorService(t)
	ctx := context.Background()
	policy := NewPolicyService(store, discardLogger())

	if err := policy.SetContentStatus(ctx, "org1", "c1", "published"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid status rejection, got %v", err)
	}
	if err := policy.SetContentStatus(ctx, "org1", "c1", domain.ContentApproved); err != nil {
		t.Fatalf("set content: %v", err)
	}
	if err := policy.SetAutopost(ctx, "org1", true); err != nil {
		t.Fatalf("set autopost: %v", err)
	}
	if err := policy.SetPublishingPaused(ctx, true, "test"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused, _ := store.IsPublishingPaused(ctx); !paused {
		t.Fatal("expected pause to be persisted")
	}
	if enabled, _ := store.IsAutopostEnabled(ctx, "org1"); !enabled {
		t.Fatal("expected autopost persisted")
	}
}
