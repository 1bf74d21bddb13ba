// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crowdjudge/crowdjudge/models"
)

// tokenKey is the fixed storage key for the admin bearer token. The absence
// of the row is the unauthenticated default.
const tokenKey = "admin_token"

const schema = `
-- Single-row settings (admin token lives here under a fixed key)
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Last fetched group list, kept in fetch order for startup display
CREATE TABLE IF NOT EXISTS group_cache (
    position INTEGER PRIMARY KEY,
    group_id INTEGER NOT NULL,
    payload TEXT NOT NULL,
    fetched_at TIMESTAMP NOT NULL
);
`

// Store persists the client's durable state: the admin bearer token and a
// snapshot of the last fetched group list.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database at path.
// Safe to call on an existing file - the schema uses IF NOT EXISTS.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Token returns the persisted admin token, or "" when unauthenticated.
func (s *Store) Token() (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, tokenKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return value, nil
}

// SetToken persists the admin token, replacing any previous value.
func (s *Store) SetToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, tokenKey, token)
	if err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return nil
}

// ClearToken removes the persisted token. Clearing an absent token is a no-op.
func (s *Store) ClearToken() error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, tokenKey)
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// SaveGroups replaces the cached group snapshot with the given list,
// preserving its order.
func (s *Store) SaveGroups(groups []models.Group) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM group_cache`); err != nil {
		return fmt.Errorf("failed to clear group cache: %w", err)
	}

	now := time.Now()
	for i, g := range groups {
		payload, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("failed to encode group %d: %w", g.ID, err)
		}
		_, err = tx.Exec(`
			INSERT INTO group_cache (position, group_id, payload, fetched_at)
			VALUES (?, ?, ?, ?)
		`, i, g.ID, string(payload), now)
		if err != nil {
			return fmt.Errorf("failed to cache group %d: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group cache: %w", err)
	}
	return nil
}

// CachedGroups returns the last saved group snapshot in its original order.
// An empty cache yields an empty list, not an error.
func (s *Store) CachedGroups() ([]models.Group, error) {
	rows, err := s.db.Query(`SELECT payload FROM group_cache ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read group cache: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan cached group: %w", err)
		}
		var g models.Group
		if err := json.Unmarshal([]byte(payload), &g); err != nil {
			return nil, fmt.Errorf("failed to decode cached group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
