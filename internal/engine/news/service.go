// Package news runs the feed engine: poll the sources, diff against the
// ledger, emit the capped prefix, mark everything observed as seen, and
// persist before the next wake.
package news

import (
	"context"
	"sync"
	"time"

	"finbeat/internal/discord"
	"finbeat/internal/feed"
	"finbeat/internal/schedule"
	logx "finbeat/pkg/logx"
)

type Poster interface {
	Post(ctx context.Context, embed discord.Embed) error
}

// EntryFetcher produces a source's current entries; fetch failures yield
// an empty slice, never an error.
type EntryFetcher interface {
	Fetch(ctx context.Context, src feed.Source) []feed.Entry
}

type Config struct {
	Sources       []feed.Source
	PollInterval  time.Duration
	PruneInterval time.Duration
	Retention     time.Duration
	Location      *time.Location
}

type Service struct {
	mu      sync.Mutex
	sources []feed.Source

	pollInterval  time.Duration
	pruneInterval time.Duration
	retention     time.Duration

	ledger  *feed.Ledger
	fetcher EntryFetcher
	images  *feed.ImageFinder
	webhook Poster
	runner  *schedule.Runner
	log     logx.Logger
}

func New(cfg Config, ledger *feed.Ledger, fetcher EntryFetcher, webhook Poster, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = 24 * time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		sources:       cfg.Sources,
		pollInterval:  cfg.PollInterval,
		pruneInterval: cfg.PruneInterval,
		retention:     cfg.Retention,
		ledger:        ledger,
		fetcher:       fetcher,
		images:        feed.NewImageFinder(),
		webhook:       webhook,
		runner:        schedule.NewRunner(cfg.Location, log.With(logx.String("engine", "news"))),
		log:           log.With(logx.String("engine", "news")),
	}
}

// Apply swaps the source list; picked up on the next poll cycle.
func (s *Service) Apply(sources []feed.Source) {
	s.mu.Lock()
	s.sources = sources
	s.mu.Unlock()
}

func (s *Service) snapshotSources() []feed.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.ledger.Load(ctx); err != nil {
		// Degrade to an empty ledger rather than refusing to start; the
		// bounded cost is a re-bootstrap pass with no emissions.
		s.log.Warn("ledger load failed; starting empty", logx.Err(err))
	}

	if err := s.runner.Add("poll", "@every "+s.pollInterval.String(), s.poll); err != nil {
		return err
	}
	if err := s.runner.Add("prune", "@every "+s.pruneInterval.String(), s.prune); err != nil {
		return err
	}
	s.runner.Start(ctx)

	s.log.Info("news engine started",
		logx.Int("sources", len(s.snapshotSources())),
		logx.Duration("poll_interval", s.pollInterval),
		logx.Int("tracked", s.ledger.Size()))

	// First pass immediately so fresh sources index now instead of one
	// poll interval from now. Routed through the runner so it shares the
	// overlap guard with scheduled polls.
	go s.runner.Kick("poll")
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.runner.Stop(ctx)
}

// poll is one cycle over all sources. The ledger write for each source
// happens synchronously before the cycle moves on, so a crash between
// cycles loses at most one cycle's worth of state.
func (s *Service) poll(ctx context.Context) {
	now := time.Now().UTC()
	posted := 0

	for _, src := range s.snapshotSources() {
		if ctx.Err() != nil {
			return
		}

		entries := s.fetcher.Fetch(ctx, src)
		if len(entries) == 0 {
			s.log.Debug("no entries", logx.String("source", src.Name))
			continue
		}

		d := s.ledger.Diff(src.Name, entries, src.MaxPerCycle, now)
		if d.Bootstrap {
			s.log.Info("indexing existing articles (no posts)",
				logx.String("source", src.Name), logx.Int("count", len(d.New)))
			_ = s.ledger.MarkSeen(ctx, src.Name, d.New)
			continue
		}

		for _, e := range d.Emit {
			if err := s.webhook.Post(ctx, s.buildEmbed(ctx, src, e)); err != nil {
				s.log.Error("article notification dropped",
					logx.String("source", src.Name),
					logx.String("title", truncate(e.Title, 60)),
					logx.Err(err))
				continue
			}
			posted++
			s.log.Info("article posted",
				logx.String("source", src.Name),
				logx.String("title", truncate(e.Title, 60)))
		}

		// Every unseen identity is recorded, not just the emitted prefix;
		// otherwise capped entries would surface as new again next poll.
		_ = s.ledger.MarkSeen(ctx, src.Name, d.New)
	}

	if posted > 0 {
		s.log.Info("poll cycle done", logx.Int("posted", posted))
	}
}

func (s *Service) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention)
	removed, err := s.ledger.Prune(ctx, cutoff)
	if err != nil {
		return // already logged by the ledger
	}
	if removed > 0 {
		s.log.Info("pruned ledger",
			logx.Int("removed", removed),
			logx.Int("tracked", s.ledger.Size()))
	}
}

// buildEmbed layers presentation on top of the diff decision. Enrichment
// is best-effort; a failed image lookup just yields a text-only embed.
func (s *Service) buildEmbed(ctx context.Context, src feed.Source, e feed.Entry) discord.Embed {
	embed := discord.Embed{
		Title:       truncate(e.Title, 256),
		URL:         e.Link,
		Description: feed.Snippet(e.Summary),
		Color:       src.Color,
		Footer:      &discord.EmbedFooter{Text: src.Name, IconURL: src.Icon},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if img := s.images.Find(ctx, e); img != "" {
		embed.Image = &discord.EmbedImage{URL: img}
	}
	return embed
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
