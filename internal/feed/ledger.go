package feed

import (
	"context"
	"sync"
	"time"

	"finbeat/internal/storage"
	logx "finbeat/pkg/logx"
)

// DefaultMaxPerCycle caps notification bursts when a feed publishes many
// articles between polls.
const DefaultMaxPerCycle = 3

// Ledger is the in-memory view of the seen-article store, owned by the
// news engine's single sequential loop.
type Ledger struct {
	mu    sync.Mutex
	seen  storage.Snapshot
	store storage.Store
	log   logx.Logger
}

func NewLedger(store storage.Store, log logx.Logger) *Ledger {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Ledger{seen: storage.Snapshot{}, store: store, log: log}
}

// Load primes the ledger from durable storage. Drivers degrade corrupt
// state to empty themselves, so an error here is a hard I/O failure.
func (l *Ledger) Load(ctx context.Context) error {
	snap, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.seen = snap
	l.mu.Unlock()
	return nil
}

// Size reports the number of tracked identities across all sources.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.seen {
		n += len(m)
	}
	return n
}

// Diff is one poll cycle's decision for a source.
type Diff struct {
	// Emit is the in-feed-order prefix of unseen entries, truncated to the
	// per-source cap.
	Emit []Entry
	// New holds every unseen identity observed this cycle, not just the
	// emitted prefix; all of it must be marked seen afterwards.
	New map[string]time.Time
	// Bootstrap is set on the first poll ever seen for this source:
	// everything is recorded, nothing is emitted.
	Bootstrap bool
}

// Diff computes what to emit for one source snapshot. It mutates nothing;
// the caller commits via MarkSeen after the cycle completes.
func (l *Ledger) Diff(source string, entries []Entry, maxEmit int, now time.Time) Diff {
	if maxEmit <= 0 {
		maxEmit = DefaultMaxPerCycle
	}

	l.mu.Lock()
	known, bootstrapped := l.seen[source]
	seen := make(map[string]struct{}, len(known))
	for id := range known {
		seen[id] = struct{}{}
	}
	l.mu.Unlock()

	d := Diff{New: map[string]time.Time{}, Bootstrap: !bootstrapped}
	for _, e := range entries {
		id := Identity(e)
		if _, ok := seen[id]; ok {
			continue
		}
		if _, dup := d.New[id]; dup {
			continue
		}
		d.New[id] = now
		if !d.Bootstrap && len(d.Emit) < maxEmit {
			d.Emit = append(d.Emit, e)
		}
	}
	return d
}

// MarkSeen records identities in memory and durable storage, synchronously.
// A storage failure is logged and reported but leaves the in-memory state
// committed: the accepted risk is duplicate emission after a crash, never
// re-emission while the process lives.
func (l *Ledger) MarkSeen(ctx context.Context, source string, ids map[string]time.Time) error {
	l.mu.Lock()
	m := l.seen[source]
	if m == nil {
		m = map[string]time.Time{}
		l.seen[source] = m
	}
	for id, at := range ids {
		if _, ok := m[id]; !ok {
			m[id] = at
		}
	}
	l.mu.Unlock()

	if err := l.store.Insert(ctx, source, ids); err != nil {
		l.log.Warn("ledger write failed", logx.String("source", source), logx.Err(err))
		return err
	}
	return nil
}

// Prune drops identities strictly older than cutoff; identities exactly at
// the horizon are retained. Runs on a materially slower cadence than polls.
func (l *Ledger) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	l.mu.Lock()
	removed := 0
	for source, m := range l.seen {
		for id, at := range m {
			if at.Before(cutoff) {
				delete(m, id)
				removed++
			}
		}
		l.seen[source] = m
	}
	l.mu.Unlock()

	if _, err := l.store.Prune(ctx, cutoff); err != nil {
		l.log.Warn("ledger prune failed", logx.Err(err))
		return removed, err
	}
	return removed, nil
}
