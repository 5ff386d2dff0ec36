// CLAUDE:SUMMARY SQLite schema for the guide database: channels, programs, and run metadata.
package store

import "database/sql"

// Schema is the complete guide database schema. Safe to apply repeatedly.
const Schema = `
-- Channels of the active lineup. One row per upstream-stable external_id,
-- refreshed on every capture session, never deleted.
CREATE TABLE IF NOT EXISTS channels (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    external_id    TEXT NOT NULL UNIQUE,
    channel_number TEXT NOT NULL DEFAULT '',
    callsign       TEXT NOT NULL DEFAULT '',
    name           TEXT NOT NULL DEFAULT '',
    logo_url       TEXT NOT NULL DEFAULT ''
);

-- Scheduled programs. Identity is (channel_id, start_time); end_time and the
-- text fields are mutable because upstream revises runtimes and titles.
CREATE TABLE IF NOT EXISTS programs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    channel_id  INTEGER NOT NULL REFERENCES channels(id),
    title       TEXT NOT NULL DEFAULT '',
    sub_title   TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    image_url   TEXT NOT NULL DEFAULT '',
    start_time  INTEGER NOT NULL,
    end_time    INTEGER NOT NULL,
    UNIQUE(channel_id, start_time)
);
CREATE INDEX IF NOT EXISTS idx_programs_end ON programs(end_time);

-- Small key/value run state persisted across runs (cursor, last zip code).
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL DEFAULT ''
);
`

// ApplySchema executes the schema against db.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
