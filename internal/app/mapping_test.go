package app

import (
	"testing"
	"time"

	"finbeat/internal/config"
)

func TestMapSessionTableFromDefaults(t *testing.T) {
	cfg := config.Default()

	table, warn, err := mapSessionTable(cfg)
	if err != nil {
		t.Fatalf("mapSessionTable: %v", err)
	}
	if len(table) != len(cfg.Sessions.Table) {
		t.Fatalf("mapped %d sessions, want %d", len(table), len(cfg.Sessions.Table))
	}
	if warn != 30*time.Minute {
		t.Fatalf("warn offset = %v, want 30m", warn)
	}

	byName := map[string]int{}
	for i, s := range table {
		byName[s.Name] = i
	}
	ny, ok := byName["New York"]
	if !ok {
		t.Fatalf("New York session missing from default table")
	}
	if table[ny].Open.Hour != 9 || table[ny].Open.Minute != 30 {
		t.Fatalf("New York open = %+v", table[ny].Open)
	}
	if table[ny].Weekend || table[ny].SundayOpen {
		t.Fatalf("New York must be weekday-only")
	}

	cme, ok := byName["CME Futures"]
	if !ok {
		t.Fatalf("CME Futures session missing from default table")
	}
	if !table[cme].SundayOpen {
		t.Fatalf("CME Futures must carry the Sunday reopen flag")
	}
}

func TestMapSessionTableRejectsBadClock(t *testing.T) {
	cfg := config.Default()
	cfg.Sessions.Table[0].Open = "25:00"
	if _, _, err := mapSessionTable(cfg); err == nil {
		t.Fatalf("expected error for out-of-range open time")
	}
}

func TestMapFeedSourcesInheritsCap(t *testing.T) {
	cfg := config.Default()
	cfg.News.MaxPerFeed = 3
	cfg.News.Feeds = []config.FeedConfig{
		{Name: "A", URL: "https://a.example/rss"},
		{Name: "B", URL: "https://b.example/rss", MaxPerCycle: 1, Color: "#1E90FF"},
	}

	sources, err := mapFeedSources(cfg)
	if err != nil {
		t.Fatalf("mapFeedSources: %v", err)
	}
	if sources[0].MaxPerCycle != 3 {
		t.Fatalf("A cap = %d, want inherited 3", sources[0].MaxPerCycle)
	}
	if sources[1].MaxPerCycle != 1 {
		t.Fatalf("B cap = %d, want its own 1", sources[1].MaxPerCycle)
	}
	if sources[1].Color != 0x1E90FF {
		t.Fatalf("B color = %#x", sources[1].Color)
	}
}

func TestMapStoreConfigDefaults(t *testing.T) {
	cfg := config.Default()
	sc, err := mapStoreConfig(cfg)
	if err != nil {
		t.Fatalf("mapStoreConfig: %v", err)
	}
	if sc.Driver != "file" {
		t.Fatalf("driver = %q", sc.Driver)
	}
	if sc.BusyTimeout != 5*time.Second {
		t.Fatalf("busy timeout = %v", sc.BusyTimeout)
	}
}
