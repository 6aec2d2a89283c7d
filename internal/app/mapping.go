package app

import (
	"fmt"
	"time"

	"finbeat/internal/config"
	"finbeat/internal/feed"
	"finbeat/internal/market"
	"finbeat/internal/storage"
)

// mapSessionTable turns the on-disk session config into the engine's
// runtime table. Validation already happened at load time, so errors here
// indicate a config that bypassed Validate.
func mapSessionTable(cfg *config.Config) ([]market.Session, time.Duration, error) {
	table := make([]market.Session, 0, len(cfg.Sessions.Table))
	for i, sc := range cfg.Sessions.Table {
		open, err := config.ParseTimeOfDay(sc.Open)
		if err != nil {
			return nil, 0, fmt.Errorf("sessions.table[%d].open: %w", i, err)
		}
		closeAt, err := config.ParseTimeOfDay(sc.Close)
		if err != nil {
			return nil, 0, fmt.Errorf("sessions.table[%d].close: %w", i, err)
		}
		color, err := config.ParseColor(sc.Color)
		if err != nil {
			return nil, 0, fmt.Errorf("sessions.table[%d].color: %w", i, err)
		}
		table = append(table, market.Session{
			Name:       sc.Name,
			Open:       market.TimeOfDay{Hour: open[0], Minute: open[1]},
			Close:      market.TimeOfDay{Hour: closeAt[0], Minute: closeAt[1]},
			Color:      color,
			Emoji:      sc.Emoji,
			Weekend:    sc.Weekend,
			SundayOpen: sc.SundayOpen,
		})
	}

	warn := time.Duration(cfg.Sessions.WarningMinutes) * time.Minute
	if warn <= 0 {
		warn = 30 * time.Minute
	}
	return table, warn, nil
}

// mapFeedSources turns the on-disk feed list into news engine sources. A
// feed without its own cap inherits the engine-wide max_per_feed.
func mapFeedSources(cfg *config.Config) ([]feed.Source, error) {
	sources := make([]feed.Source, 0, len(cfg.News.Feeds))
	for i, fc := range cfg.News.Feeds {
		color, err := config.ParseColor(fc.Color)
		if err != nil {
			return nil, fmt.Errorf("news.feeds[%d].color: %w", i, err)
		}
		limit := fc.MaxPerCycle
		if limit <= 0 {
			limit = cfg.News.MaxPerFeed
		}
		sources = append(sources, feed.Source{
			Name:        fc.Name,
			URL:         fc.URL,
			Color:       color,
			Icon:        fc.Icon,
			MaxPerCycle: limit,
		})
	}
	return sources, nil
}

func mapStoreConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationOrDefault("news.store.busy_timeout", cfg.News.Store.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      cfg.News.Store.Driver,
		Path:        cfg.News.Store.Path,
		BusyTimeout: busy,
	}, nil
}
