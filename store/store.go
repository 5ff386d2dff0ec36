// Package store is the data access layer for the guide database.
//
// It owns three tables: channels, programs, and metadata. All ingestion
// writes go through idempotent upserts so that re-fetching a schedule
// window converges instead of duplicating rows.
package store

import (
	"database/sql"
	"time"
)

// Store wraps the guide database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Channel is one channel of the active lineup.
type Channel struct {
	ID            int64
	ExternalID    string
	ChannelNumber string
	CallSign      string
	Name          string
	LogoURL       string
}

// Program is one scheduled broadcast on a channel. Start is the identity
// together with ChannelID; End and the text fields may be revised upstream.
type Program struct {
	ID          int64
	ChannelID   int64
	Title       string
	SubTitle    string
	Description string
	ImageURL    string
	Start       time.Time
	End         time.Time
}
