package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fr0stylo/tokengate/internal/adapters/sqlite"
	"github.com/fr0stylo/tokengate/internal/db"
)

func runTool(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPauseResumeAndPolicyCommands(t *testing.T) {
	t.Setenv("TOKENGATE_ENV", "test")
	dbPath := filepath.Join(t.TempDir(), "tool")

	if out, err := runTool(t, dbPath, "pause"); err != nil || !strings.Contains(out, "paused=true") {
		t.Fatalf("pause: %v %q", err, out)
	}
	if _, err := runTool(t, dbPath, "content-status", "c1", "--org", "org1"); err != nil {
		t.Fatalf("content-status: %v", err)
	}
	if _, err := runTool(t, dbPath, "autopost", "--org", "org1"); err != nil {
		t.Fatalf("autopost: %v", err)
	}

	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := sqlite.NewStore(database)
	ctx := context.Background()
	paused, err := store.IsPublishingPaused(ctx)
	if err != nil || !paused {
		t.Fatalf("expected paused, got %t %v", paused, err)
	}
	enabled, err := store.IsAutopostEnabled(ctx, "org1")
	if err != nil || !enabled {
		t.Fatalf("expected autopost enabled, got %t %v", enabled, err)
	}
	_ = database.Close()

	if _, err := runTool(t, dbPath, "resume"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := runTool(t, dbPath, "content-status", "c1", "--org", "org1", "--status", "published"); err == nil {
		t.Fatal("expected invalid status to fail")
	}
}

func TestSeedDummyTokenAndStatus(t *testing.T) {
	t.Setenv("TOKENGATE_ENV", "test")
	dbPath := filepath.Join(t.TempDir(), "tool")

	if _, err := runTool(t, dbPath, "seed-dummy-token", "--org", "org1", "--provider", "linkedin"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := runTool(t, dbPath, "token-status", "--org", "org1", "--provider", "linkedin")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, `"hasToken": true`) || !strings.Contains(out, `"tokenPreview": "dummy-…"`) {
		t.Fatalf("unexpected status output %s", out)
	}

	if _, err := runTool(t, dbPath, "token-status", "--org", "org1", "--provider", "myspace"); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}

func TestGrantRejectsUnknownRole(t *testing.T) {
	t.Setenv("TOKENGATE_ENV", "test")
	dbPath := filepath.Join(t.TempDir(), "tool")
	if _, err := runTool(t, dbPath, "grant", "--user-id", "1", "--org", "org1", "--role", "root"); err == nil {
		t.Fatal("expected role validation error")
	}
}
