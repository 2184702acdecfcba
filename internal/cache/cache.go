// Package cache persists the last fetched board snapshot in a local SQLite
// database so the board renders instantly on startup and survives a failed
// fetch. It is a read-through convenience, never a source of truth: the next
// successful fetch replaces it wholesale.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avens/taskdeck/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	scope    TEXT PRIMARY KEY,
	payload  BLOB NOT NULL,
	saved_at TEXT NOT NULL
);
`

// Cache is a handle to the snapshot database.
type Cache struct {
	db *sql.DB
}

// Open creates (or opens) the snapshot database at path, creating parent
// directories as needed.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize snapshot cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveSnapshot stores the items for a scope, replacing any previous snapshot.
func (c *Cache) SaveSnapshot(ctx context.Context, scope domain.Scope, items []domain.WorkItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO snapshots (scope, payload, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, scope.Key(), payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached items for a scope. The second return value
// is false when no snapshot exists for that scope.
func (c *Cache) LoadSnapshot(ctx context.Context, scope domain.Scope) ([]domain.WorkItem, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE scope = ?`, scope.Key(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var items []domain.WorkItem
	if err := json.Unmarshal(payload, &items); err != nil {
		// A corrupt snapshot is not fatal; treat it as absent.
		return nil, false, nil
	}
	return items, true, nil
}

// DeleteSnapshot removes the cached snapshot for a scope.
func (c *Cache) DeleteSnapshot(ctx context.Context, scope domain.Scope) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM snapshots WHERE scope = ?`, scope.Key()); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
