package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLStore)(nil)

// SQLStore keeps payloads in a single state table, one row per key.
// It works against both sqlite and postgres.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore connects with the given driver and creates the state table if
// it does not exist yet.
func NewSQLStore(driver, dataSourceName string) (*SQLStore, error) {
	if driver == DriverSQLite && !strings.HasPrefix(dataSourceName, "file:") && dataSourceName != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dataSourceName), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Get returns the payload stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowxContext(ctx, s.db.Rebind("SELECT payload FROM state WHERE bucket = ?"), key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(payload), nil
}

// Put upserts the payload under key.
func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO state (bucket, payload) VALUES (?, ?) ON CONFLICT (bucket) DO UPDATE SET payload = excluded.payload"),
		key,
		string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
