package market

import "time"

// ActiveSession is a read-only view row for the on-demand query path.
type ActiveSession struct {
	Session   Session
	Remaining time.Duration
}

// UpcomingSession answers "what opens next".
type UpcomingSession struct {
	Session Session
	Wait    time.Duration
}

// ActiveNow lists currently active sessions in table order with their
// remaining time. It shares IsActive with the scheduled-notification path,
// so the two can never disagree about session state.
func ActiveNow(table []Session, now time.Time) []ActiveSession {
	var out []ActiveSession
	for _, s := range table {
		if active, remaining := IsActive(s, now); active {
			out = append(out, ActiveSession{Session: s, Remaining: remaining})
		}
	}
	return out
}

// Upcoming returns the next session to open, excluding active ones.
func Upcoming(table []Session, now time.Time) (UpcomingSession, bool) {
	s, wait, ok := NextOpening(table, now)
	if !ok {
		return UpcomingSession{}, false
	}
	return UpcomingSession{Session: s, Wait: wait}, true
}
