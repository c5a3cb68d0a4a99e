package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HeartbeatIdle != 120*time.Second || cfg.HeartbeatHard != 300*time.Second {
		t.Fatalf("unexpected heartbeat defaults %s/%s", cfg.HeartbeatIdle, cfg.HeartbeatHard)
	}
	if cfg.ResyncInterval != 10*time.Second || cfg.ForceResyncDelay != 2*time.Second {
		t.Fatalf("unexpected resync defaults %s/%s", cfg.ResyncInterval, cfg.ForceResyncDelay)
	}
	if cfg.MinMovement != 5 {
		t.Fatalf("expected min movement 5, got %v", cfg.MinMovement)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RESYNC_SECONDS", "3")
	t.Setenv("DEBOUNCE_MS", "150")
	t.Setenv("RECONNECT_JITTER_MS", "not-a-number")
	t.Setenv("MIN_MOVE_PX", "2.5")
	cfg := Load()
	if cfg.ResyncInterval != 3*time.Second {
		t.Fatalf("expected resync 3s, got %s", cfg.ResyncInterval)
	}
	if cfg.DebounceWindow != 150*time.Millisecond {
		t.Fatalf("expected debounce 150ms, got %s", cfg.DebounceWindow)
	}
	if cfg.ReconnectJitter != Default().ReconnectJitter {
		t.Fatalf("expected invalid jitter to fall back, got %s", cfg.ReconnectJitter)
	}
	if cfg.MinMovement != 2.5 {
		t.Fatalf("expected min movement 2.5, got %v", cfg.MinMovement)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PUBLIC_URL=http://from-file\nADMIN_PASSWORD=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("PUBLIC_URL", "http://from-env")
	t.Setenv("ADMIN_PASSWORD", "")
	os.Unsetenv("ADMIN_PASSWORD")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ADMIN_PASSWORD") })
	cfg := Load()
	if cfg.PublicURL != "http://from-env" {
		t.Fatalf("expected env to win, got %s", cfg.PublicURL)
	}
	if cfg.AdminPassword != "from-file" {
		t.Fatalf("expected file value, got %s", cfg.AdminPassword)
	}
}
