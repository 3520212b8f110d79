package blobstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

// SQLiteStore is the durable KV medium. One kv table, one connection; the
// quota caps the total stored value bytes to model a size-constrained
// client-side storage.
type SQLiteStore struct {
	db         *sql.DB
	quotaBytes int64
}

// OpenSQLite opens the store at path and bootstraps the schema. A
// quotaBytes of zero or less disables the quota.
func OpenSQLite(path string, quotaBytes int64) (*SQLiteStore, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, quotaBytes: quotaBytes}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put upserts one value. Writes that would exceed the quota fail with
// ErrQuotaExceeded and leave the store unchanged.
func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("store key is required")
	}
	if s.quotaBytes > 0 {
		var used int64
		err := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0) FROM kv WHERE key != ?`, key).Scan(&used)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > s.quotaBytes {
			return fmt.Errorf("put %q (%d bytes): %w", key, len(value), ErrQuotaExceeded)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Get returns the value for key and whether it exists.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Remove deletes one key. Missing keys are ignored.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys lists every stored key.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Tune connection pool for local usage.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("store path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}
