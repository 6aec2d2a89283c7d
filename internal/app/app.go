// Package app wires the process together: configuration, logging, storage,
// the two notification engines, the status endpoint, and the reload loop.
package app

import (
	"context"
	"fmt"
	"time"

	"finbeat/internal/config"
	"finbeat/internal/discord"
	"finbeat/internal/engine/news"
	"finbeat/internal/engine/sessions"
	"finbeat/internal/feed"
	"finbeat/internal/runtime/supervisor"
	"finbeat/internal/status"
	"finbeat/internal/storage"
	"finbeat/internal/sysd"
	logx "finbeat/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log      logx.Logger
	logClose func() error

	store    storage.Store
	sessions *sessions.Service
	news     *news.Service
	status   *status.Service
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath, logx.NewConsole("INFO").With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	log, logClose, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleLogging(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return nil, err
	}
	appLog := log.With(logx.String("comp", "app"))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{cfgm: cfgm, log: appLog, logClose: logClose}

	if cfg.SessionsEnabled() {
		table, warn, err := mapSessionTable(cfg)
		if err != nil {
			return nil, err
		}
		webhook := discord.New(discord.Config{WebhookURL: cfg.Sessions.WebhookURL},
			log.With(logx.String("comp", "discord"), logx.String("channel", "sessions")))
		a.sessions = sessions.New(sessions.Config{
			Table:      table,
			WarnOffset: warn,
			Location:   loc,
		}, webhook, log)
	}

	if cfg.NewsEnabled() {
		sources, err := mapFeedSources(cfg)
		if err != nil {
			return nil, err
		}
		storeCfg, err := mapStoreConfig(cfg)
		if err != nil {
			return nil, err
		}
		poll, err := config.ParseDurationOrDefault("news.poll_interval", cfg.News.PollInterval, 5*time.Minute)
		if err != nil {
			return nil, err
		}
		prune, err := config.ParseDurationOrDefault("news.prune_interval", cfg.News.PruneInterval, 24*time.Hour)
		if err != nil {
			return nil, err
		}
		retention, err := config.ParseDurationOrDefault("news.retention", cfg.News.Retention, 7*24*time.Hour)
		if err != nil {
			return nil, err
		}

		// Opened after all fallible parsing; the constructors below
		// return no errors, so no path leaks the handle.
		st, err := storage.Open(storeCfg, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, fmt.Errorf("open seen-article store: %w", err)
		}
		a.store = st

		webhook := discord.New(discord.Config{WebhookURL: cfg.News.WebhookURL},
			log.With(logx.String("comp", "discord"), logx.String("channel", "news")))
		ledger := feed.NewLedger(st, log.With(logx.String("comp", "ledger")))
		fetcher := feed.NewFetcher(log.With(logx.String("comp", "fetch")))
		a.news = news.New(news.Config{
			Sources:       sources,
			PollInterval:  poll,
			PruneInterval: prune,
			Retention:     retention,
			Location:      loc,
		}, ledger, fetcher, webhook, log)
	}

	if cfg.Status.Enabled {
		a.status = status.New(status.Config{
			Enabled: true,
			Addr:    cfg.Status.Addr,
		}, a.report, log.With(logx.String("comp", "status")))
	}

	return a, nil
}

// report answers the status endpoint. With the session engine disabled it
// degrades to an empty report rather than an error.
func (a *App) report() status.SessionsReport {
	if a.sessions != nil {
		return a.sessions.Report()
	}
	return status.SessionsReport{
		Time:   time.Now().UTC().Format(time.RFC3339),
		Active: []status.ActiveSession{},
	}
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, a.log)

	if a.sessions != nil {
		if err := a.sessions.Start(ctx); err != nil {
			return err
		}
	}
	if a.news != nil {
		if err := a.news.Start(ctx); err != nil {
			return err
		}
	}
	if a.status != nil {
		if err := a.status.Start(ctx); err != nil {
			return err
		}
	}

	a.sup.Go("config.watch", a.cfgm.Watch)
	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		a.reloadLoop(c, sub)
		return nil
	})
	a.sup.Go("systemd.watchdog", func(c context.Context) error {
		return sysd.WatchdogLoop(c, a.log)
	})

	sysd.NotifyReady(a.log)
	a.log.Info("started")
	return nil
}

// reloadLoop applies validated config updates to the running engines. Only
// the session table, warning offset, and feed list hot-apply; logging,
// storage, and listener changes need a restart.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			if a.sessions != nil && cfg.SessionsEnabled() {
				table, warn, err := mapSessionTable(cfg)
				if err != nil {
					a.log.Warn("reload: session table rejected", logx.Err(err))
				} else {
					a.sessions.Apply(table, warn)
					a.log.Info("reload: session table applied", logx.Int("sessions", len(table)))
				}
			}
			if a.news != nil && cfg.NewsEnabled() {
				sources, err := mapFeedSources(cfg)
				if err != nil {
					a.log.Warn("reload: feed list rejected", logx.Err(err))
				} else {
					a.news.Apply(sources)
					a.log.Info("reload: feed list applied", logx.Int("feeds", len(sources)))
				}
			}
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	sysd.NotifyStopping(a.log)

	if a.status != nil {
		_ = a.status.Stop(ctx)
	}
	if a.news != nil {
		a.news.Stop(ctx)
	}
	if a.sessions != nil {
		a.sessions.Stop(ctx)
	}

	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	a.log.Info("stopped")
	if a.logClose != nil {
		_ = a.logClose()
	}
	return err
}
