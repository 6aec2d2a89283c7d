package market

import (
	"testing"
	"time"
)

func TestFiredLogIdempotent(t *testing.T) {
	l := NewFiredLog()
	ev := Event{
		Session: Session{Name: "New York"},
		Kind:    KindOpen,
		At:      at(8, 9, 30),
	}

	if l.HasFired(ev) {
		t.Fatalf("fresh log should not report fired")
	}
	l.MarkFired(ev)
	if !l.HasFired(ev) {
		t.Fatalf("expected fired after mark")
	}
	// Re-sampling the same minute must not change anything.
	l.MarkFired(ev)
	if !l.HasFired(ev) || l.Len() != 1 {
		t.Fatalf("expected a single identity, got %d", l.Len())
	}

	// Same session+kind, different minute, is a different identity.
	later := ev
	later.At = ev.At.Add(time.Minute)
	if l.HasFired(later) {
		t.Fatalf("different minute must be a distinct identity")
	}
}

func TestFiredLogDailyReset(t *testing.T) {
	l := NewFiredLog()
	ev := Event{Session: Session{Name: "London"}, Kind: KindClose, At: at(8, 12, 0)}

	if l.ResetIfNewDay(at(8, 9, 0)) {
		t.Fatalf("first observation must not count as a reset")
	}
	l.MarkFired(ev)

	if l.ResetIfNewDay(at(8, 23, 59)) {
		t.Fatalf("same-day check must not clear")
	}
	if !l.HasFired(ev) {
		t.Fatalf("identity lost without a date change")
	}

	// Fired stays set until the local date rolls over.
	if !l.ResetIfNewDay(at(9, 0, 0)) {
		t.Fatalf("expected clear on date change")
	}
	if l.HasFired(ev) || l.Len() != 0 {
		t.Fatalf("expected empty log after reset")
	}

	// A missed midnight tick still resets at the next sample.
	l.MarkFired(ev)
	if !l.ResetIfNewDay(at(11, 7, 42)) {
		t.Fatalf("expected clear when midnight tick was missed")
	}
}
