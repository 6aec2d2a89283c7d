package market

import (
	"sync"
	"time"
)

// FiredLog is the idempotency ledger for session events. Keys embed the
// calendar date, so instead of per-entry expiry the whole log is cleared
// once per day when the local date rolls over.
//
// Marking is idempotent; the scheduler may sample the same minute more
// than once without producing a second emission.
type FiredLog struct {
	mu    sync.Mutex
	day   string
	fired map[string]struct{}
}

func NewFiredLog() *FiredLog {
	return &FiredLog{fired: map[string]struct{}{}}
}

func (l *FiredLog) HasFired(ev Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.fired[ev.Key()]
	return ok
}

func (l *FiredLog) MarkFired(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fired[ev.Key()] = struct{}{}
}

// Len reports the number of tracked identities (for logging).
func (l *FiredLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fired)
}

// ResetIfNewDay clears the log when now's local date differs from the last
// observed one. Triggering on date change rather than the exact 00:00 tick
// means a missed midnight sample cannot leave stale identities behind.
// Returns true when a clear happened.
func (l *FiredLog) ResetIfNewDay(now time.Time) bool {
	day := now.Format("2006-01-02")
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.day == day {
		return false
	}
	first := l.day == ""
	l.day = day
	if first {
		return false
	}
	l.fired = map[string]struct{}{}
	return true
}
