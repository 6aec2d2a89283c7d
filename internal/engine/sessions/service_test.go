package sessions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finbeat/internal/discord"
	"finbeat/internal/market"
	logx "finbeat/pkg/logx"
)

type fakePoster struct {
	embeds []discord.Embed
	err    error
}

func (f *fakePoster) Post(_ context.Context, e discord.Embed) error {
	f.embeds = append(f.embeds, e)
	return f.err
}

var et = time.FixedZone("ET", -5*3600)

// 2024-01-08 is a Monday.
func newTestService(poster Poster, now time.Time) *Service {
	s := New(Config{
		Table: []market.Session{
			{Name: "New York", Open: market.TimeOfDay{Hour: 9, Minute: 30}, Close: market.TimeOfDay{Hour: 16}, Color: 0x228B22, Emoji: "🇺🇸"},
		},
		WarnOffset: 30 * time.Minute,
		Location:   et,
	}, poster, logx.Nop())
	s.clock = func() time.Time { return now }
	return s
}

func TestTickEmitsOpenOnce(t *testing.T) {
	poster := &fakePoster{}
	now := time.Date(2024, 1, 8, 9, 30, 12, 0, et)
	s := newTestService(poster, now)

	ctx := context.Background()
	s.tick(ctx)
	s.tick(ctx) // re-sampling the same minute must not re-emit
	if len(poster.embeds) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(poster.embeds))
	}
	e := poster.embeds[0]
	if !strings.Contains(e.Title, "New York Session Open") {
		t.Fatalf("unexpected title %q", e.Title)
	}
	if !strings.Contains(e.Description, "Closes at 4:00 PM") {
		t.Fatalf("unexpected description %q", e.Description)
	}
	if e.Color != 0x228B22 {
		t.Fatalf("unexpected color %#x", e.Color)
	}
}

func TestTickWarningFormat(t *testing.T) {
	poster := &fakePoster{}
	s := newTestService(poster, time.Date(2024, 1, 8, 9, 0, 0, 0, et))

	s.tick(context.Background())
	if len(poster.embeds) != 1 {
		t.Fatalf("expected warning notification, got %d", len(poster.embeds))
	}
	e := poster.embeds[0]
	if !strings.Contains(e.Title, "New York — 30 Minutes") {
		t.Fatalf("unexpected warning title %q", e.Title)
	}
	if !strings.Contains(e.Description, "Opens at 9:30 AM") {
		t.Fatalf("unexpected warning description %q", e.Description)
	}
}

func TestTickMarksFiredEvenWhenPostFails(t *testing.T) {
	poster := &fakePoster{err: errors.New("webhook down")}
	s := newTestService(poster, time.Date(2024, 1, 8, 16, 0, 30, 0, et))

	ctx := context.Background()
	s.tick(ctx)
	s.tick(ctx)
	// At-least-once-drop: the failed close event is not retried.
	if len(poster.embeds) != 1 {
		t.Fatalf("expected a single (failed) attempt, got %d", len(poster.embeds))
	}
}

func TestTickQuietOnSaturday(t *testing.T) {
	poster := &fakePoster{}
	// Saturday 2024-01-06 at the open minute.
	s := newTestService(poster, time.Date(2024, 1, 6, 9, 30, 0, 0, et))

	s.tick(context.Background())
	if len(poster.embeds) != 0 {
		t.Fatalf("weekday-only session posted on Saturday: %+v", poster.embeds)
	}
}

func TestReportMatchesEvaluator(t *testing.T) {
	s := newTestService(&fakePoster{}, time.Date(2024, 1, 8, 10, 0, 0, 0, et))

	rep := s.Report()
	if len(rep.Active) != 1 || rep.Active[0].Session != "New York" {
		t.Fatalf("expected New York active, got %+v", rep.Active)
	}
	if rep.Active[0].Remaining != "6h0m0s" {
		t.Fatalf("unexpected remaining %q", rep.Active[0].Remaining)
	}
	if rep.Next != nil {
		t.Fatalf("single active session cannot also be upcoming: %+v", rep.Next)
	}

	// Outside the window the session is upcoming, never active.
	s.clock = func() time.Time { return time.Date(2024, 1, 8, 17, 0, 0, 0, et) }
	rep = s.Report()
	if len(rep.Active) != 0 {
		t.Fatalf("expected no active sessions, got %+v", rep.Active)
	}
	if rep.Next == nil || rep.Next.Session != "New York" {
		t.Fatalf("expected New York upcoming, got %+v", rep.Next)
	}
}
