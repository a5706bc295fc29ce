package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestManagerLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  poll_timeout: "15s"
logging:
  level: "debug"
  console: true
storage:
  driver: "sqlite"
  path: "./tasks.db"
retention:
  prune_schedule: "@hourly"
  horizon: "48h"
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if d, _ := ParseDuration(cfg.Telegram.PollTimeout, 0); d != 15*time.Second {
		t.Fatalf("poll_timeout = %v", d)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage driver = %q", cfg.Storage.Driver)
	}
	if cfg.Retention.PruneSchedule != "@hourly" {
		t.Fatalf("prune schedule = %q", cfg.Retention.PruneSchedule)
	}
}

func TestManagerLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json",
		`{"telegram":{"token":"123:abc"},"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""}}}`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}

func TestManagerRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
botnet:
  enabled: true
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestManagerRejectsMissingToken(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: ""
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected missing token to be rejected")
	}
}

func TestManagerRejectsBadDuration(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  poll_timeout: "soon"
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected bad duration to be rejected")
	}
}
