// Package storage persists the seen-article ledger: a per-source mapping
// from article identity to first-seen timestamp.
//
// Two drivers exist behind one interface:
//   - "file": a single JSON snapshot, rewritten atomically on every change
//   - "sqlite": a SQLite database file
//
// A source is considered bootstrapped once it appears in the ledger at all,
// even with zero articles; both drivers preserve empty sources so pruning
// can never re-trigger the first-run indexing pass.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "finbeat/pkg/logx"
)

// Snapshot is the in-memory ledger shape: source -> identity -> first seen.
type Snapshot map[string]map[string]time.Time

// Config selects and configures a driver. An empty driver means "file".
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the durable ledger API used by the feed engine.
//
// Insert and Prune are synchronous: when they return, the state is on disk
// (or the error says otherwise). Load degradation on corrupt state is the
// driver's job; it returns an empty snapshot and logs instead of failing.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Insert(ctx context.Context, source string, ids map[string]time.Time) error
	Prune(ctx context.Context, cutoff time.Time) (removed int, err error)
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
