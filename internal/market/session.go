// Package market models named trading sessions as wall-clock windows in a
// single reference timezone and answers which notifiable transitions
// (warning, open, close) are due at a given instant.
package market

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock hour:minute, not a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Clock12 renders the time-of-day in 12-hour form, e.g. "9:30 AM".
func (t TimeOfDay) Clock12() string {
	suffix := "AM"
	if t.Hour >= 12 {
		suffix = "PM"
	}
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, suffix)
}

// Session is a named market session window. Open and Close are times of
// day in the reference timezone; Close numerically earlier than Open means
// the window spans midnight.
//
// Weekend sessions run every day. Non-weekend sessions are skipped on
// Saturday and Sunday, except a SundayOpen session (futures-style
// continuous market) which is also evaluated from Sunday 17:00 onward.
type Session struct {
	Name       string
	Open       TimeOfDay
	Close      TimeOfDay
	Color      int
	Emoji      string
	Weekend    bool
	SundayOpen bool
}

// Kind is a notifiable session transition.
type Kind string

const (
	KindWarning Kind = "warning"
	KindOpen    Kind = "open"
	KindClose   Kind = "close"
)

// Event identifies one notifiable transition at minute resolution.
// Two events with the same Key must never both be emitted.
type Event struct {
	Session Session
	Kind    Kind
	At      time.Time
}

// Key embeds the calendar date, so identities never collide across days.
func (e Event) Key() string {
	return fmt.Sprintf("%s:%s:%s", e.Session.Name, e.Kind, e.At.Format("2006-01-02:15:04"))
}
