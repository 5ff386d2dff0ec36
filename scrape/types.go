package scrape

import (
	"context"
	"fmt"
	"time"
)

// RosterChannel is one channel of the lineup as the upstream API reports it.
// Index is the roster index schedule responses use to reference channels.
type RosterChannel struct {
	Index      int
	ExternalID string
	Major      int
	Minor      int
	CallSign   string
	Name       string
	LogoURL    string
}

// ChannelNumber renders the display designation, e.g. "7.1", or "7" when
// there is no minor channel.
func (c RosterChannel) ChannelNumber() string {
	if c.Minor != 0 {
		return fmt.Sprintf("%d.%d", c.Major, c.Minor)
	}
	return fmt.Sprintf("%d", c.Major)
}

// Credentials are the session-scoped identifiers extracted from an observed
// schedule request. They are valid only for the browser session that
// produced them.
type Credentials struct {
	UserID   string
	LineupID string
}

// Capture is the output of one capture session.
type Capture struct {
	Roster      []RosterChannel
	Credentials Credentials
}

// Navigator is the capability interface over the guide site's UI. Each step
// returns an error when the expected affordance did not appear within its
// bounded wait; the capture session treats that as "already in the desired
// state" and moves on.
type Navigator interface {
	DismissOverlay(ctx context.Context) error
	OpenLineupPicker(ctx context.Context) error
	SelectBroadcastOption(ctx context.Context) error
	SubmitLocation(ctx context.Context, zip string) error
	SelectMarket(ctx context.Context, market string) error
}

// ScheduleClient fetches one schedule window using captured credentials.
type ScheduleClient interface {
	FetchWindow(ctx context.Context, creds Credentials, start time.Time, blockMinutes int) (*ScheduleResponse, error)
}

// ScheduleResponse is the decoded schedule payload for one window. Missing
// substructure decodes to empty slices, which the ingestion loop treats as
// a no-op.
type ScheduleResponse struct {
	Channels []ScheduleChannel
}

// ScheduleChannel references a roster entry by index.
type ScheduleChannel struct {
	Index int
	Days  []ScheduleDay
}

// ScheduleDay groups the events of one day within a window.
type ScheduleDay struct {
	Events []ScheduleEvent
}

// ScheduleEvent is one broadcast event. Timestamps are upstream strings;
// EpisodeTitle and SubTitle are the two names upstream uses for the same
// field.
type ScheduleEvent struct {
	StartTime    string
	EndTime      string
	Title        string
	EpisodeTitle string
	SubTitle     string
	Description  string
	ShowCard     string
}
