package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rubiojr/efinder/pkg/db"
	"github.com/rubiojr/efinder/pkg/log"
)

// DBName is the database file created inside the storage directory.
const DBName = "efinder.db"

// ErrNotFound is returned when a settings key has no stored value.
var ErrNotFound = errors.New("not found")

var logger = log.ForService("storage")

// Store persists client state (settings and search history) in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// HistoryEntry is one successful search recorded in the history table.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Query       string    `json:"query"`
	Author      string    `json:"author"`
	Store       string    `json:"store"`
	ResultCount int       `json:"result_count"`
	SearchedAt  time.Time `json:"searched_at"`
}

// OpenDir opens (creating if needed) the efinder database inside dir.
func OpenDir(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
	}
	return Open(ctx, filepath.Join(dir, DBName))
}

// Open opens the database at dbPath and applies pending migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA temp_store = memory",
	}

	for _, pragma := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.InitializeDatabase(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("initializing database %s: %w", dbPath, err)
	}

	logger.Debugf("opened %s", dbPath)
	return &Store{db: sqlDB, path: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// GetSetting returns the stored value for key or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes key. Deleting a missing key is not an error.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return nil
}

// AddHistory records a search. SearchedAt defaults to now when zero.
func (s *Store) AddHistory(ctx context.Context, entry HistoryEntry) error {
	if entry.SearchedAt.IsZero() {
		entry.SearchedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history (query, author, store, result_count, searched_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.Query, entry.Author, entry.Store, entry.ResultCount, entry.SearchedAt.UTC())
	if err != nil {
		return fmt.Errorf("recording search history: %w", err)
	}
	return nil
}

// RecentHistory returns up to limit entries, newest first. Timestamps are
// stored as text with variable-length fractions, so ordering goes through
// julianday rather than string comparison.
func (s *Store) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, author, store, result_count, searched_at
		FROM search_history
		ORDER BY julianday(searched_at) DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying search history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warnf("failed to close rows: %v", err)
		}
	}()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.Author, &e.Store, &e.ResultCount, &e.SearchedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Migrations reports every schema migration and when it was applied.
func (s *Store) Migrations(ctx context.Context) ([]db.Migration, error) {
	return db.NewMigrationManager(s.db).Status(ctx)
}
