package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, "LOGSTREAM_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadCLIConfigDefaults(t *testing.T) {
	home := isolateEnv(t)

	cfg, err := loadCLIConfig("")
	if err != nil {
		t.Fatalf("loadCLIConfig: %v", err)
	}
	if cfg.ServerURL != defaultServerURL {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.WSURL != "ws://127.0.0.1:3000/ws" {
		t.Fatalf("WSURL = %q", cfg.WSURL)
	}
	if cfg.MaxDisplayEntries != defaultMaxEntries || cfg.BackfillLimit != defaultBackfillLimit {
		t.Fatalf("limits = %d/%d", cfg.MaxDisplayEntries, cfg.BackfillLimit)
	}
	if cfg.StatsInterval != defaultStatsInterval {
		t.Fatalf("StatsInterval = %s", cfg.StatsInterval)
	}
	if !cfg.Reconnect || !cfg.PersistPreferences {
		t.Fatalf("reconnect=%v persist=%v, want both true", cfg.Reconnect, cfg.PersistPreferences)
	}
	if want := filepath.Join(home, ".config", "logstream", "prefs.yml"); cfg.PrefsPath != want {
		t.Fatalf("PrefsPath = %q, want %q", cfg.PrefsPath, want)
	}
}

func TestLoadCLIConfigFileAndEnv(t *testing.T) {
	isolateEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "server-url: https://logs.example.com/base/\nstats-interval: 5s\npersist-preferences: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LOGSTREAM_MAX_DISPLAY_ENTRIES", "50")

	cfg, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("loadCLIConfig: %v", err)
	}
	if cfg.WSURL != "wss://logs.example.com/base/ws" {
		t.Fatalf("WSURL = %q", cfg.WSURL)
	}
	if cfg.StatsInterval != 5*time.Second {
		t.Fatalf("StatsInterval = %s", cfg.StatsInterval)
	}
	if cfg.MaxDisplayEntries != 50 {
		t.Fatalf("MaxDisplayEntries = %d, want 50 from env", cfg.MaxDisplayEntries)
	}
	if cfg.PrefsPath != "" {
		t.Fatalf("PrefsPath = %q, want empty when persistence is off", cfg.PrefsPath)
	}
}

func TestLoadCLIConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"zero entries", map[string]string{"LOGSTREAM_MAX_DISPLAY_ENTRIES": "0"}, "max-display-entries"},
		{"negative backfill", map[string]string{"LOGSTREAM_BACKFILL_LIMIT": "-1"}, "backfill-limit"},
		{"bad scheme", map[string]string{"LOGSTREAM_SERVER_URL": "ftp://host"}, "scheme"},
		{"no host", map[string]string{"LOGSTREAM_SERVER_URL": "http://"}, "missing host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadCLIConfig("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestExplicitWSURLWins(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOGSTREAM_WS_URL", "ws://elsewhere:9000/socket")

	cfg, err := loadCLIConfig("")
	if err != nil {
		t.Fatalf("loadCLIConfig: %v", err)
	}
	if cfg.WSURL != "ws://elsewhere:9000/socket" {
		t.Fatalf("WSURL = %q", cfg.WSURL)
	}
}
