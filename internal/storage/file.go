package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "finbeat/pkg/logx"
)

// fileStore keeps the whole ledger as one JSON document and rewrites it
// via tmp+rename so a crash mid-write never leaves a truncated snapshot.
//
// The ledger is written once per poll cycle, so snapshot rewrites are cheap
// enough; no journal is needed.
type fileStore struct {
	log  logx.Logger
	path string

	mu   sync.Mutex
	data Snapshot
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{log: log, path: path, data: Snapshot{}}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fresh start
	case err != nil:
		log.Warn("ledger unreadable; starting empty", logx.String("path", path), logx.Err(err))
	default:
		if err := json.Unmarshal(b, &s.data); err != nil {
			log.Warn("ledger corrupt; starting empty", logx.String("path", path), logx.Err(err))
			s.data = Snapshot{}
		}
	}
	return s, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Load(ctx context.Context) (Snapshot, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone(), nil
}

func (s *fileStore) Insert(ctx context.Context, source string, ids map[string]time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.data[source]
	if m == nil {
		m = map[string]time.Time{}
		s.data[source] = m
	}
	for id, at := range ids {
		if _, ok := m[id]; !ok {
			m[id] = at
		}
	}
	return s.writeLocked()
}

func (s *fileStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for source, m := range s.data {
		for id, at := range m {
			if at.Before(cutoff) {
				delete(m, id)
				removed++
			}
		}
		// Keep the (possibly empty) source map: it is the bootstrap marker.
		s.data[source] = m
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.writeLocked()
}

func (s *fileStore) writeLocked() error {
	b, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (snap Snapshot) clone() Snapshot {
	out := make(Snapshot, len(snap))
	for source, m := range snap {
		cp := make(map[string]time.Time, len(m))
		for id, at := range m {
			cp[id] = at
		}
		out[source] = cp
	}
	return out
}
