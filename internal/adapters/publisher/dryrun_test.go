package publisher

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
)

func TestDryRunNeverLogsFullToken(t *testing.T) {
	var buf bytes.Buffer
	p := NewDryRun(slog.New(slog.NewTextHandler(&buf, nil)))

	result, err := p.Publish(context.Background(), ports.PublishRequest{
		OrganizationID: "org1",
		Platform:       domain.PlatformLinkedIn,
		ContentItemID:  "c1",
		AccessToken:    "secret-access-token-value",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.HasPrefix(result.ExternalID, "dryrun-") || result.NeedsRefresh {
		t.Fatalf("unexpected result %+v", result)
	}
	if strings.Contains(buf.String(), "secret-access-token-value") {
		t.Fatalf("token leaked into log: %s", buf.String())
	}
}
