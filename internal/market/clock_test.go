package market

import (
	"testing"
	"time"
)

var testZone = time.FixedZone("ET", -5*3600)

// 2024-01-08 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.January, day, hour, minute, 0, 0, testZone)
}

func table() []Session {
	return []Session{
		{Name: "Sydney", Open: TimeOfDay{17, 0}, Close: TimeOfDay{2, 0}, Weekend: true},
		{Name: "Tokyo", Open: TimeOfDay{19, 0}, Close: TimeOfDay{4, 0}, Weekend: true},
		{Name: "London", Open: TimeOfDay{3, 0}, Close: TimeOfDay{12, 0}},
		{Name: "New York", Open: TimeOfDay{9, 30}, Close: TimeOfDay{16, 0}},
		{Name: "CME Futures", Open: TimeOfDay{18, 0}, Close: TimeOfDay{17, 0}, SundayOpen: true},
	}
}

func TestIsActiveWraparound(t *testing.T) {
	sydney := Session{Name: "Sydney", Open: TimeOfDay{17, 0}, Close: TimeOfDay{2, 0}, Weekend: true}

	// One minute before close on the following day.
	if active, remaining := IsActive(sydney, at(9, 1, 59)); !active {
		t.Fatalf("expected active at 01:59")
	} else if remaining != time.Minute {
		t.Fatalf("expected 1m remaining, got %v", remaining)
	}
	// One minute after close.
	if active, _ := IsActive(sydney, at(9, 2, 1)); active {
		t.Fatalf("expected inactive at 02:01")
	}
	// Just after open, the whole wrapped window remains.
	if _, remaining := IsActive(sydney, at(8, 17, 0)); remaining != 9*time.Hour {
		t.Fatalf("expected 9h remaining at open, got %v", remaining)
	}
}

func TestIsActivePlainWindow(t *testing.T) {
	ny := Session{Name: "New York", Open: TimeOfDay{9, 30}, Close: TimeOfDay{16, 0}}

	cases := []struct {
		now    time.Time
		active bool
	}{
		{at(8, 9, 29), false},
		{at(8, 9, 30), true},
		{at(8, 15, 59), true},
		{at(8, 16, 0), false},
		{at(6, 10, 0), false}, // Saturday
		{at(7, 10, 0), false}, // Sunday
	}
	for _, c := range cases {
		if active, _ := IsActive(ny, c.now); active != c.active {
			t.Fatalf("IsActive(%v) = %v, want %v", c.now, active, c.active)
		}
	}
}

func TestDueEventsWeekdayGating(t *testing.T) {
	// Saturday: nothing due for non-weekend sessions at their open minute.
	due := DueEvents(table(), at(6, 9, 30), 30*time.Minute)
	for _, ev := range due {
		if !ev.Session.Weekend {
			t.Fatalf("unexpected weekday-only event on Saturday: %s", ev.Key())
		}
	}

	// Sunday 18:00: the futures reopen is due despite weekend=false.
	due = DueEvents(table(), at(7, 18, 0), 30*time.Minute)
	found := false
	for _, ev := range due {
		if ev.Session.Name == "CME Futures" && ev.Kind == KindOpen {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CME Futures open event on Sunday evening, got %v", due)
	}

	// Sunday 16:00 is before the reopen threshold.
	for _, ev := range DueEvents(table(), at(7, 16, 0), 30*time.Minute) {
		if ev.Session.Name == "CME Futures" {
			t.Fatalf("CME Futures evaluated before Sunday 17:00: %s", ev.Key())
		}
	}
}

func TestDueEventsEndToEnd(t *testing.T) {
	tbl := []Session{{Name: "New York", Open: TimeOfDay{9, 30}, Close: TimeOfDay{16, 0}}}

	// Monday 09:00 → warning (30-minute offset).
	due := DueEvents(tbl, at(8, 9, 0), 30*time.Minute)
	if len(due) != 1 || due[0].Kind != KindWarning {
		t.Fatalf("expected warning at 09:00, got %v", due)
	}
	// Monday 09:30 → open.
	due = DueEvents(tbl, at(8, 9, 30), 30*time.Minute)
	if len(due) != 1 || due[0].Kind != KindOpen {
		t.Fatalf("expected open at 09:30, got %v", due)
	}
	// Monday 16:00 → close.
	due = DueEvents(tbl, at(8, 16, 0), 30*time.Minute)
	if len(due) != 1 || due[0].Kind != KindClose {
		t.Fatalf("expected close at 16:00, got %v", due)
	}
	// Any other minute → nothing.
	if due := DueEvents(tbl, at(8, 12, 34), 30*time.Minute); len(due) != 0 {
		t.Fatalf("expected no events at 12:34, got %v", due)
	}
}

func TestDueEventsWarningCrossesMidnight(t *testing.T) {
	// Open 00:10 puts the warning at 23:40 the previous day.
	tbl := []Session{{Name: "Wrap", Open: TimeOfDay{0, 10}, Close: TimeOfDay{8, 0}, Weekend: true}}

	due := DueEvents(tbl, at(8, 23, 40), 30*time.Minute)
	if len(due) != 1 || due[0].Kind != KindWarning {
		t.Fatalf("expected warning at 23:40, got %v", due)
	}
	if got := due[0].At.Format("15:04"); got != "23:40" {
		t.Fatalf("expected event minute 23:40, got %s", got)
	}
}

func TestNextOpeningExcludesActive(t *testing.T) {
	tbl := table()
	// Sweep a full week at 17-minute steps.
	for now := at(8, 0, 0); now.Before(at(15, 0, 0)); now = now.Add(17 * time.Minute) {
		s, wait, ok := NextOpening(tbl, now)
		if !ok {
			t.Fatalf("no next opening at %v", now)
		}
		if active, _ := IsActive(s, now); active {
			t.Fatalf("NextOpening returned active session %s at %v", s.Name, now)
		}
		if wait <= 0 {
			t.Fatalf("non-positive wait %v for %s at %v", wait, s.Name, now)
		}
	}
}

func TestNextOpeningSkipsWeekend(t *testing.T) {
	tbl := []Session{{Name: "New York", Open: TimeOfDay{9, 30}, Close: TimeOfDay{16, 0}}}

	// Friday 17:00 → next NY open is Monday 09:30.
	s, wait, ok := NextOpening(tbl, at(5, 17, 0))
	if !ok || s.Name != "New York" {
		t.Fatalf("expected New York, got %v ok=%v", s.Name, ok)
	}
	want := at(8, 9, 30).Sub(at(5, 17, 0))
	if wait != want {
		t.Fatalf("expected wait %v, got %v", want, wait)
	}
}

func TestActiveNowMatchesIsActive(t *testing.T) {
	tbl := table()
	// Monday 10:00: London and New York are open, and so is the futures
	// session, whose 18:00→17:00 wraparound window covers the whole
	// weekday morning.
	now := at(8, 10, 0)

	active := ActiveNow(tbl, now)
	if len(active) != 3 {
		t.Fatalf("expected 3 active sessions, got %d", len(active))
	}
	want := []string{"London", "New York", "CME Futures"}
	for i, name := range want {
		if active[i].Session.Name != name {
			t.Fatalf("expected table order %v, got %s at %d", want, active[i].Session.Name, i)
		}
	}
	for _, a := range active {
		ok, remaining := IsActive(a.Session, now)
		if !ok || remaining != a.Remaining {
			t.Fatalf("query view disagrees with evaluator for %s", a.Session.Name)
		}
	}

	if up, ok := Upcoming(tbl, now); ok {
		if active, _ := IsActive(up.Session, now); active {
			t.Fatalf("Upcoming returned active session %s", up.Session.Name)
		}
	}
}
