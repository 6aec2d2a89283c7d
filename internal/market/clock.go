package market

import "time"

const minutesPerDay = 24 * 60

// sundayReopenHour is when SundayOpen sessions come back into evaluation.
const sundayReopenHour = 17

// evaluableAt reports whether the session is considered at all on the
// calendar day of now. The caller must pass now already converted to the
// reference timezone.
func (s Session) evaluableAt(now time.Time) bool {
	if s.Weekend {
		return true
	}
	if s.SundayOpen && now.Weekday() == time.Sunday && now.Hour() >= sundayReopenHour {
		return true
	}
	wd := now.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsActive reports whether the session window contains now, and how long
// until it closes. A wraparound window (close < open) is active when
// now >= open OR now < close.
func IsActive(s Session, now time.Time) (bool, time.Duration) {
	if !s.evaluableAt(now) {
		return false, 0
	}

	cur := now.Hour()*60 + now.Minute()
	open := s.Open.minutes()
	close := s.Close.minutes()

	var active bool
	if close < open {
		active = cur >= open || cur < close
	} else {
		active = open <= cur && cur < close
	}
	if !active {
		return false, 0
	}

	remaining := close - cur
	if remaining <= 0 {
		remaining += minutesPerDay
	}
	return true, time.Duration(remaining) * time.Minute
}

// DueEvents computes the transitions due at exactly now's wall-clock
// hour:minute. The scheduler must sample every minute boundary at least
// once; matching is equality, not a range check.
func DueEvents(table []Session, now time.Time, warnOffset time.Duration) []Event {
	cur := now.Hour()*60 + now.Minute()
	at := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, now.Location())

	var due []Event
	for _, s := range table {
		if !s.evaluableAt(now) {
			continue
		}

		// The warning can fall on the previous calendar day; comparing
		// minutes-of-day modulo 24h handles that without date arithmetic.
		warn := (s.Open.minutes() - int(warnOffset.Minutes()) + minutesPerDay) % minutesPerDay
		if warnOffset > 0 && cur == warn {
			due = append(due, Event{Session: s, Kind: KindWarning, At: at})
		}
		if cur == s.Open.minutes() {
			due = append(due, Event{Session: s, Kind: KindOpen, At: at})
		}
		if cur == s.Close.minutes() {
			due = append(due, Event{Session: s, Kind: KindClose, At: at})
		}
	}
	return due
}

// NextOpening returns the inactive session that opens soonest after now,
// and how long until it opens. Ties go to the earlier table entry.
func NextOpening(table []Session, now time.Time) (Session, time.Duration, bool) {
	var (
		best     Session
		bestWait time.Duration
		found    bool
	)
	for _, s := range table {
		if active, _ := IsActive(s, now); active {
			continue
		}
		wait, ok := nextOpenWait(s, now)
		if !ok {
			continue
		}
		if !found || wait < bestWait {
			best, bestWait, found = s, wait, true
		}
	}
	return best, bestWait, found
}

// nextOpenWait finds the next instant the session's open time comes due,
// skipping days the session is not evaluated on.
func nextOpenWait(s Session, now time.Time) (time.Duration, bool) {
	for days := 0; days <= 8; days++ {
		cand := time.Date(now.Year(), now.Month(), now.Day()+days,
			s.Open.Hour, s.Open.Minute, 0, 0, now.Location())
		if !cand.After(now) {
			continue
		}
		if !s.evaluableAt(cand) {
			continue
		}
		return cand.Sub(now), true
	}
	return 0, false
}
