package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Retention.WindowDays != 30 {
		t.Errorf("window = %d, want 30", cfg.Retention.WindowDays)
	}
	if got := cfg.ListenAddr(); got != "127.0.0.1:3000" {
		t.Errorf("listen addr = %q", got)
	}
	if got := cfg.SweepEvery(); got != time.Hour {
		t.Errorf("sweep interval = %v, want 1h", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("expected defaults, got port %d", cfg.Server.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  bind: 0.0.0.0
  port: 8080
database:
  path: /tmp/test.db
retention:
  window_days: 7
  sweep_interval: 15m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8080" {
		t.Errorf("listen addr = %q", got)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Retention.WindowDays != 7 {
		t.Errorf("window = %d, want 7", cfg.Retention.WindowDays)
	}
	if got := cfg.SweepEvery(); got != 15*time.Minute {
		t.Errorf("sweep interval = %v, want 15m", got)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "retention:\n  window_days: 90\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retention.WindowDays != 90 {
		t.Errorf("window = %d, want 90", cfg.Retention.WindowDays)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want the default 3000", cfg.Server.Port)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"zero window", "retention:\n  window_days: 0\n"},
		{"negative window", "retention:\n  window_days: -5\n"},
		{"bad interval", "retention:\n  sweep_interval: often\n"},
		{"not yaml", "{{{{\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
