package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Load reads the config file at path, layered over Default(). An empty path
// returns the defaults. Environment webhook variables win over file values.
// The result is validated; a validation failure is a startup-fatal error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decodeStrict(path, b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_SESSIONS")); v != "" {
		cfg.Sessions.WebhookURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URL")); v != "" {
		cfg.News.WebhookURL = v
	}
}

// decodeStrict coerces YAML configs to JSON bytes so we can re-use the
// strict JSON decoder (DisallowUnknownFields) for both formats.
func decodeStrict(path string, data []byte, cfg *Config) error {
	jb := data
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("yaml unmarshal: %w", err)
		}
		v = normalizeYAML(v)
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("yaml->json marshal: %w", err)
		}
		jb = b
	}

	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("trailing data after config document")
		}
		return err
	}
	return nil
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		for k, v := range x {
			x[k] = normalizeYAML(v)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// Validate checks everything needed before entering any loop. Missing
// webhook credentials for an enabled engine are an error by design:
// the process must refuse to start rather than silently drop notifications.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(timezoneOr(c.Timezone)); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	if c.SessionsEnabled() {
		if strings.TrimSpace(c.Sessions.WebhookURL) == "" {
			return errors.New("sessions.webhook_url is required (or set DISCORD_WEBHOOK_SESSIONS)")
		}
		if len(c.Sessions.Table) == 0 {
			return errors.New("sessions.table must not be empty")
		}
		for i, s := range c.Sessions.Table {
			where := fmt.Sprintf("sessions.table[%d]", i)
			if strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("%s: name is required", where)
			}
			if _, err := ParseTimeOfDay(s.Open); err != nil {
				return fmt.Errorf("%s.open: %w", where, err)
			}
			if _, err := ParseTimeOfDay(s.Close); err != nil {
				return fmt.Errorf("%s.close: %w", where, err)
			}
			if _, err := ParseColor(s.Color); err != nil {
				return fmt.Errorf("%s.color: %w", where, err)
			}
		}
	}

	if c.NewsEnabled() {
		if strings.TrimSpace(c.News.WebhookURL) == "" {
			return errors.New("news.webhook_url is required (or set DISCORD_WEBHOOK_URL)")
		}
		if len(c.News.Feeds) == 0 {
			return errors.New("news.feeds must not be empty")
		}
		for i, f := range c.News.Feeds {
			where := fmt.Sprintf("news.feeds[%d]", i)
			if strings.TrimSpace(f.Name) == "" {
				return fmt.Errorf("%s: name is required", where)
			}
			if strings.TrimSpace(f.URL) == "" {
				return fmt.Errorf("%s: url is required", where)
			}
			if _, err := ParseColor(f.Color); err != nil {
				return fmt.Errorf("%s.color: %w", where, err)
			}
		}
		if _, err := ParseDurationField("news.poll_interval", c.News.PollInterval); err != nil {
			return err
		}
		if _, err := ParseDurationField("news.prune_interval", c.News.PruneInterval); err != nil {
			return err
		}
		if _, err := ParseDurationField("news.retention", c.News.Retention); err != nil {
			return err
		}
		switch d := strings.ToLower(strings.TrimSpace(c.News.Store.Driver)); d {
		case "", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("news.store.driver: unknown driver %q", d)
		}
		if _, err := ParseDurationField("news.store.busy_timeout", c.News.Store.BusyTimeout); err != nil {
			return err
		}
	}

	return nil
}

func timezoneOr(tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "America/New_York"
	}
	return tz
}

// Location resolves the reference timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(timezoneOr(c.Timezone))
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (hm [2]int, err error) {
	s = strings.TrimSpace(s)
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return hm, fmt.Errorf("invalid time-of-day %q (want HH:MM)", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return hm, fmt.Errorf("time-of-day %q out of range", s)
	}
	return [2]int{h, m}, nil
}
