package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is the full on-disk configuration. It can be written as YAML or
// JSON; both are decoded strictly (unknown fields are rejected).
//
// All durations are Go duration strings (e.g. "30s", "5m", "168h").
type Config struct {
	// Timezone is the IANA reference timezone all session clocks are
	// evaluated in. Defaults to America/New_York.
	Timezone string `json:"timezone,omitempty"`

	Logging LoggingConfig `json:"logging,omitempty"`
	Status  StatusConfig  `json:"status,omitempty"`

	Sessions SessionsConfig `json:"sessions,omitempty"`
	News     NewsConfig     `json:"news,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console *bool      `json:"console,omitempty"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// StatusConfig controls the read-only HTTP query endpoint.
type StatusConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Addr    string `json:"addr,omitempty"`
}

// SessionsConfig configures the market-session engine.
//
// WebhookURL may be omitted in the file and supplied via the
// DISCORD_WEBHOOK_SESSIONS environment variable instead.
type SessionsConfig struct {
	Enabled        *bool           `json:"enabled,omitempty"`
	WebhookURL     string          `json:"webhook_url,omitempty"`
	WarningMinutes int             `json:"warning_minutes,omitempty"`
	Table          []SessionConfig `json:"table,omitempty"`
}

// SessionConfig is one named trading session.
//
// Open/Close are wall-clock "HH:MM" in the reference timezone. A close
// earlier than open means the session spans midnight. Weekend sessions are
// evaluated every day; non-weekend sessions are skipped on Saturday and
// Sunday, except that a session with sunday_open set is also evaluated from
// Sunday 17:00 onward (weekly futures reopen).
type SessionConfig struct {
	Name       string `json:"name"`
	Open       string `json:"open"`
	Close      string `json:"close"`
	Color      string `json:"color,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
	Weekend    bool   `json:"weekend,omitempty"`
	SundayOpen bool   `json:"sunday_open,omitempty"`
}

// NewsConfig configures the RSS news engine.
//
// WebhookURL may be omitted in the file and supplied via the
// DISCORD_WEBHOOK_URL environment variable instead.
type NewsConfig struct {
	Enabled       *bool        `json:"enabled,omitempty"`
	WebhookURL    string       `json:"webhook_url,omitempty"`
	PollInterval  string       `json:"poll_interval,omitempty"`
	PruneInterval string       `json:"prune_interval,omitempty"`
	Retention     string       `json:"retention,omitempty"`
	MaxPerFeed    int          `json:"max_per_feed,omitempty"`
	Store         StoreConfig  `json:"store,omitempty"`
	Feeds         []FeedConfig `json:"feeds,omitempty"`
}

// StoreConfig selects the durable seen-article ledger backend.
//
// Driver values:
//   - "file": single JSON snapshot (default)
//   - "sqlite": SQLite database file
type StoreConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type FeedConfig struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	MaxPerCycle int    `json:"max_per_cycle,omitempty"`
}

// ParseColor accepts "#1E90FF", "0x1E90FF" or a bare hex string and returns
// the Discord embed color integer. Empty input returns 0.
func ParseColor(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return int(v), nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// SessionsEnabled reports whether the session engine should run.
func (c *Config) SessionsEnabled() bool { return boolOr(c.Sessions.Enabled, true) }

// NewsEnabled reports whether the news engine should run.
func (c *Config) NewsEnabled() bool { return boolOr(c.News.Enabled, true) }

// ConsoleLogging reports whether the console sink is on (default true).
func (c *Config) ConsoleLogging() bool { return boolOr(c.Logging.Console, true) }
