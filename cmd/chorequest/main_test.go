package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chorequest.db")
	out, err := run(t, "migrate", "--store-path", path, "--log-level", "error")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema version 2") {
		t.Errorf("output = %q, want schema version 2", out)
	}
}

func TestMigrateRejectsOtherDrivers(t *testing.T) {
	if _, err := run(t, "migrate", "--store-driver", "memory"); err == nil {
		t.Fatal("expected error for memory driver")
	}
}

func TestSeedBadgesIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chorequest.db")

	out, err := run(t, "seed-badges", "--store-path", path, "--log-level", "error")
	if err != nil {
		t.Fatalf("seed-badges: %v", err)
	}
	if !strings.Contains(out, "seeded 6 badges") {
		t.Errorf("first run output = %q", out)
	}

	out, err = run(t, "seed-badges", "--store-path", path, "--log-level", "error")
	if err != nil {
		t.Fatalf("seed-badges: %v", err)
	}
	if !strings.Contains(out, "seeded 0 badges") {
		t.Errorf("second run output = %q", out)
	}
}

func TestInvalidDriver(t *testing.T) {
	if _, err := run(t, "seed-badges", "--store-driver", "postgres"); err == nil {
		t.Fatal("expected validation error")
	}
}
