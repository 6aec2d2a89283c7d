// Package sessions runs the market-session engine: a per-minute detection
// pass over the session table, deduplicated through the fired log.
package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finbeat/internal/discord"
	"finbeat/internal/market"
	"finbeat/internal/schedule"
	"finbeat/internal/status"
	logx "finbeat/pkg/logx"
)

// Poster is the outbound notification transport.
type Poster interface {
	Post(ctx context.Context, embed discord.Embed) error
}

type Config struct {
	Table      []market.Session
	WarnOffset time.Duration
	Location   *time.Location
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	fired   *market.FiredLog
	webhook Poster
	runner  *schedule.Runner
	log     logx.Logger

	// clock is swappable in tests.
	clock func() time.Time
}

func New(cfg Config, webhook Poster, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.WarnOffset <= 0 {
		cfg.WarnOffset = 30 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		cfg:     cfg,
		fired:   market.NewFiredLog(),
		webhook: webhook,
		runner:  schedule.NewRunner(cfg.Location, log.With(logx.String("engine", "sessions"))),
		log:     log.With(logx.String("engine", "sessions")),
		clock:   time.Now,
	}
}

// Apply swaps the session table and warning offset; picked up on the next
// tick. The fired log is kept: identities embed the date, so a table edit
// cannot cause re-emission of already-fired events.
func (s *Service) Apply(table []market.Session, warnOffset time.Duration) {
	s.mu.Lock()
	s.cfg.Table = table
	if warnOffset > 0 {
		s.cfg.WarnOffset = warnOffset
	}
	s.mu.Unlock()
}

func (s *Service) snapshot() ([]market.Session, time.Duration, *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Table, s.cfg.WarnOffset, s.cfg.Location
}

func (s *Service) Start(ctx context.Context) error {
	// Due-event matching is exact hh:mm equality, so the cadence must land
	// on every minute boundary; cron's every-minute schedule guarantees it.
	if err := s.runner.Add("session-tick", "* * * * *", s.tick); err != nil {
		return err
	}
	s.runner.Start(ctx)

	table, _, loc := s.snapshot()
	s.log.Info("session engine started",
		logx.Int("sessions", len(table)),
		logx.String("tz", loc.String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.runner.Stop(ctx)
}

// tick is one detection pass. Events are marked fired after the transport
// attempt regardless of its outcome: delivery is at-least-once-drop, never
// duplicated for the same identity.
func (s *Service) tick(ctx context.Context) {
	table, warn, loc := s.snapshot()
	now := s.clock().In(loc)

	if s.fired.ResetIfNewDay(now) {
		s.log.Info("cleared fired-event log for new day")
	}

	for _, ev := range market.DueEvents(table, now, warn) {
		if s.fired.HasFired(ev) {
			continue
		}
		err := s.webhook.Post(ctx, s.buildEmbed(ev, warn, now))
		s.fired.MarkFired(ev)
		if err != nil {
			s.log.Error("session notification dropped",
				logx.String("event", ev.Key()), logx.Err(err))
			continue
		}
		s.log.Info("session notification posted",
			logx.String("session", ev.Session.Name),
			logx.String("kind", string(ev.Kind)))
	}
}

func (s *Service) buildEmbed(ev market.Event, warn time.Duration, now time.Time) discord.Embed {
	zone := now.Format("MST")
	var title, desc, emoji string
	switch ev.Kind {
	case market.KindWarning:
		emoji = "⏰"
		title = fmt.Sprintf("%s — %d Minutes", ev.Session.Name, int(warn.Minutes()))
		desc = fmt.Sprintf("Opens at %s %s", ev.Session.Open.Clock12(), zone)
	case market.KindOpen:
		emoji = ev.Session.Emoji
		title = ev.Session.Name + " Session Open"
		desc = fmt.Sprintf("Market is now open • Closes at %s %s", ev.Session.Close.Clock12(), zone)
	case market.KindClose:
		emoji = ev.Session.Emoji
		title = ev.Session.Name + " Session Close"
		desc = "Market is now closed"
	}
	if emoji != "" {
		title = emoji + "  " + title
	}
	return discord.Embed{
		Title:       title,
		Description: desc,
		Color:       ev.Session.Color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// Report builds the on-demand query view. Read-only; shares the evaluator
// with the tick path, so the two can never disagree.
func (s *Service) Report() status.SessionsReport {
	table, _, loc := s.snapshot()
	now := s.clock().In(loc)

	rep := status.SessionsReport{
		Time:   now.Format(time.RFC3339),
		Active: []status.ActiveSession{},
	}
	for _, a := range market.ActiveNow(table, now) {
		rep.Active = append(rep.Active, status.ActiveSession{
			Session:   a.Session.Name,
			Emoji:     a.Session.Emoji,
			Remaining: a.Remaining.String(),
			ClosesAt:  a.Session.Close.String(),
		})
	}
	if up, ok := market.Upcoming(table, now); ok {
		rep.Next = &status.UpcomingSession{
			Session: up.Session.Name,
			Emoji:   up.Session.Emoji,
			Wait:    up.Wait.Truncate(time.Second).String(),
			OpensAt: up.Session.Open.String(),
		}
	}
	return rep
}
