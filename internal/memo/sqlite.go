package memo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite keeps the memo in a local database file so outputs survive
// restarts.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the memo database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create memo directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open memo database: %w", err)
	}

	// Serialize all access to avoid locks
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS memo (
			key TEXT PRIMARY KEY,
			output TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create memo table: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var out string
	err := s.db.QueryRowContext(ctx, `SELECT output FROM memo WHERE key = ?`, key).Scan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("memo lookup: %w", err)
	}
	return out, true, nil
}

func (s *SQLite) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memo (key, output) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET output = excluded.output`,
		key, value)
	if err != nil {
		return fmt.Errorf("memo store: %w", err)
	}
	return nil
}

func (s *SQLite) Name() string { return "sqlite:" + s.path }

func (s *SQLite) Close() error { return s.db.Close() }
