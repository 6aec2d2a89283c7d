package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "finbeat/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	s := &sqliteStore{db: db, log: log}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{}

	rows, err := s.db.QueryContext(ctx, `SELECT source FROM feed_sources`)
	if err != nil {
		s.log.Warn("ledger unreadable; starting empty", logx.Err(err))
		return Snapshot{}, nil
	}
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			_ = rows.Close()
			return nil, err
		}
		snap[source] = map[string]time.Time{}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT source, id, first_seen FROM feed_articles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			source, id string
			ms         int64
		)
		if err := rows.Scan(&source, &id, &ms); err != nil {
			return nil, err
		}
		m := snap[source]
		if m == nil {
			m = map[string]time.Time{}
			snap[source] = m
		}
		m[id] = time.UnixMilli(ms).UTC()
	}
	return snap, rows.Err()
}

func (s *sqliteStore) Insert(ctx context.Context, source string, ids map[string]time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO feed_sources (source, bootstrapped_at) VALUES (?, ?)`,
		source, time.Now().UnixMilli()); err != nil {
		return err
	}
	for id, at := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO feed_articles (source, id, first_seen) VALUES (?, ?, ?)`,
			source, id, at.UnixMilli()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	// Strict inequality: an identity exactly at the horizon is retained.
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM feed_articles WHERE first_seen < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
