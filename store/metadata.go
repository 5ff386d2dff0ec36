// CLAUDE:SUMMARY Key/value run state: last-write-wins metadata plus the typed cursor/zip record.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Recognised metadata keys.
const (
	MetaCursor  = "last_scrape_cursor" // RFC 3339 instant, "" = absent
	MetaLastZip = "last_zip_code"
)

// GetMeta returns the value for key, or "" when the key is absent.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta writes key=value, last-write-wins.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("store: set meta %s: %w", key, err)
	}
	return nil
}

// RunState is the typed view of the persisted run metadata, read once at the
// start of a run. A nil Cursor means no resumable progress exists.
type RunState struct {
	Cursor  *time.Time
	LastZip string
}

// LoadRunState reads the cursor and last zip code. Read failures and
// unparsable cursors degrade to absent values with a warning: losing run
// state costs only re-fetching, never correctness.
func (s *Store) LoadRunState(ctx context.Context, logger *slog.Logger) RunState {
	if logger == nil {
		logger = slog.Default()
	}

	var state RunState

	raw, err := s.GetMeta(ctx, MetaCursor)
	switch {
	case err != nil:
		logger.Warn("store: cursor read failed, treating as absent", "error", err)
	case raw != "":
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logger.Warn("store: cursor unparsable, treating as absent", "value", raw, "error", err)
		} else {
			state.Cursor = &t
		}
	}

	zip, err := s.GetMeta(ctx, MetaLastZip)
	if err != nil {
		logger.Warn("store: last zip read failed, treating as absent", "error", err)
	} else {
		state.LastZip = zip
	}

	return state
}

// SetCursor persists the next window start. Called after each window's
// writes succeed, so a crash mid-window re-fetches that window.
func (s *Store) SetCursor(ctx context.Context, next time.Time) error {
	return s.SetMeta(ctx, MetaCursor, next.Format(time.RFC3339))
}

// ResetCursor clears the cursor, forcing the next run to start a fresh
// horizon from the current time.
func (s *Store) ResetCursor(ctx context.Context) error {
	return s.SetMeta(ctx, MetaCursor, "")
}
