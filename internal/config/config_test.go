package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"overflow_policy":   func(c *Config) { c.OverflowPolicy = "block" },
		"duplicate_policy":  func(c *Config) { c.DuplicatePolicy = "merge" },
		"history_limit":     func(c *Config) { c.HistoryLimit = 0 },
		"outbox_size":       func(c *Config) { c.OutboxSize = -1 },
		"default_room":      func(c *Config) { c.DefaultRoom = "  " },
		"max_message_bytes": func(c *Config) { c.MaxMessageBytes = 0 },
		"rate_limit_burst":  func(c *Config) { c.RateLimitBurst = 0 },
	}
	for key, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", key)
		}
		if !strings.Contains(err.Error(), strings.Split(key, "_")[0]) {
			t.Fatalf("%s: error does not mention the key: %v", key, err)
		}
	}
}

func TestUpdateFromOverridesNonZero(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":9999", HistoryLimit: 10, AnnounceRoomChanges: true})

	if cfg.Addr != ":9999" || cfg.HistoryLimit != 10 || !cfg.AnnounceRoomChanges {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.DefaultRoom != "General" {
		t.Fatalf("zero override clobbered default room: %q", cfg.DefaultRoom)
	}
}

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected path %s, got %s", path, resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.HistoryLimit != 50 || cfg.DefaultRoom != "General" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "addr: \":7000\"\nhistory_limit: 5\nping_interval: 3s\nrooms:\n  - Lobby\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WIRECHAT_HISTORY_LIMIT", "7")
	t.Setenv("WIRECHAT_JWT_SECRET", "s3cret")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("addr from file not applied: %q", cfg.Addr)
	}
	if cfg.HistoryLimit != 7 {
		t.Fatalf("env should win over file, got %d", cfg.HistoryLimit)
	}
	if cfg.PingInterval != 3*time.Second {
		t.Fatalf("ping_interval: got %s", cfg.PingInterval)
	}
	if len(cfg.Rooms) != 1 || cfg.Rooms[0] != "Lobby" {
		t.Fatalf("rooms: got %v", cfg.Rooms)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("jwt secret from env not applied")
	}
}

func TestHubOptions(t *testing.T) {
	cfg := Default()
	cfg.DuplicatePolicy = "reject"
	cfg.AnnounceRoomChanges = true

	opts := cfg.HubOptions()
	if opts.DuplicatePolicy != "reject" || !opts.AnnounceRoomChanges {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.DefaultRoom != "General" || opts.HistoryLimit != 50 || len(opts.Rooms) != 4 {
		t.Fatalf("unexpected room options: %+v", opts)
	}
}

func TestLoadReplacesListDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "rooms:\n  - Lobby\nallowed_origins:\n  - chat.example.com\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Rooms) != 1 || cfg.Rooms[0] != "Lobby" {
		t.Fatalf("rooms should replace defaults, got %v", cfg.Rooms)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "chat.example.com" {
		t.Fatalf("allowed_origins should replace defaults, got %v", cfg.AllowedOrigins)
	}
	if cfg.DefaultRoom != "General" || cfg.HistoryLimit != 50 {
		t.Fatalf("scalar defaults lost: %+v", cfg)
	}
}
