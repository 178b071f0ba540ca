package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	ioutils "github.com/handiism/releasedash/internal/io"
	"github.com/handiism/releasedash/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots as JSON values in a SQLite key/value table.
// It implements both Store, under a fixed key, and KV.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ KV    = (*SQLiteStore)(nil)
)

// OpenSQLite opens or creates the database at path. key names the row
// used by Load and Save.
func OpenSQLite(ctx context.Context, path, key string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("ensure directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	if key == "" {
		key = "releases"
	}
	return &SQLiteStore{db: db, key: key}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value stored under key, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Load reads the snapshot row.
func (s *SQLiteStore) Load(ctx context.Context) ([]*model.Release, error) {
	data, err := s.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// Save overwrites the snapshot row.
func (s *SQLiteStore) Save(ctx context.Context, releases []*model.Release) error {
	data, err := encode(releases)
	if err != nil {
		return err
	}
	return s.Put(ctx, s.key, data)
}
