package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_SESSIONS", "")
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	path := writeConfig(t, "config.yaml", `
timezone: UTC
logging:
  level: DEBUG
sessions:
  webhook_url: https://discord.test/sessions
news:
  webhook_url: https://discord.test/news
  poll_interval: 2m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("timezone = %q", cfg.Timezone)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	// Unset sections keep their defaults.
	if len(cfg.Sessions.Table) == 0 || len(cfg.News.Feeds) == 0 {
		t.Fatalf("defaults lost: %d sessions, %d feeds", len(cfg.Sessions.Table), len(cfg.News.Feeds))
	}
	d, err := ParseDurationOrDefault("news.poll_interval", cfg.News.PollInterval, 5*time.Minute)
	if err != nil || d != 2*time.Minute {
		t.Fatalf("poll interval = %v, %v", d, err)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
sessions:
  webhok_url: https://discord.test/typo
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown-field error")
	}
}

func TestLoadRequiresWebhooks(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_SESSIONS", "")
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	path := writeConfig(t, "config.yaml", "timezone: UTC\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "webhook_url") {
		t.Fatalf("expected missing-webhook error, got %v", err)
	}
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_SESSIONS", "https://discord.test/env-sessions")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.test/env-news")
	path := writeConfig(t, "config.yaml", `
timezone: UTC
sessions:
  webhook_url: https://discord.test/file
news:
  webhook_url: https://discord.test/file
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sessions.WebhookURL != "https://discord.test/env-sessions" {
		t.Fatalf("sessions webhook = %q", cfg.Sessions.WebhookURL)
	}
	if cfg.News.WebhookURL != "https://discord.test/env-news" {
		t.Fatalf("news webhook = %q", cfg.News.WebhookURL)
	}
}

func TestLoadRejectsBadSessionClock(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_SESSIONS", "https://discord.test/s")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.test/n")
	path := writeConfig(t, "config.yaml", `
timezone: UTC
sessions:
  table:
    - name: Broken
      open: "24:99"
      close: "16:00"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected invalid clock error")
	}
}

func TestParseColorForms(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int
	}{
		{"", 0},
		{"#1E90FF", 0x1E90FF},
		{"0x228B22", 0x228B22},
		{"B22222", 0xB22222},
	} {
		got, err := ParseColor(tc.in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseColor(%q) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
	if _, err := ParseColor("not-a-color"); err == nil {
		t.Fatalf("expected error for garbage color")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	hm, err := ParseTimeOfDay("09:30")
	if err != nil || hm != [2]int{9, 30} {
		t.Fatalf("ParseTimeOfDay = %v, %v", hm, err)
	}
	for _, bad := range []string{"", "9", "25:00", "12:60", "noon"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("ParseTimeOfDay(%q) accepted", bad)
		}
	}
}
