// CLAUDE:SUMMARY Capture session state machine: best-effort navigation steps, then a bounded wait for both API captures.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"
)

// session drives the guide site through one capture pass. It depends only on
// the Navigator capability interface; the network side fills the slots.
type session struct {
	nav      Navigator
	slots    *captureSlots
	market   string
	deadline time.Duration
	logger   *slog.Logger
}

func newSession(nav Navigator, slots *captureSlots, cfg Config, logger *slog.Logger) *session {
	return &session{
		nav:      nav,
		slots:    slots,
		market:   cfg.Market,
		deadline: cfg.CaptureTimeout,
		logger:   logger,
	}
}

// run walks the navigation sequence and waits for both captures. Every
// navigation step is best-effort: a missing affordance means the UI is
// already in the desired state (a previously configured lineup loads the
// guide directly), so the step is skipped rather than failing the run.
func (s *session) run(ctx context.Context, zip string) (*Capture, error) {
	s.step(ctx, "dismiss overlay", s.nav.DismissOverlay)

	if s.step(ctx, "open lineup picker", s.nav.OpenLineupPicker) {
		s.step(ctx, "select broadcast option", s.nav.SelectBroadcastOption)
		s.step(ctx, "submit location", func(ctx context.Context) error {
			return s.nav.SubmitLocation(ctx, zip)
		})

		// Selecting a market retriggers both API calls for the new lineup.
		// Anything captured during setup belongs to the old lineup.
		s.slots.reset()
		s.step(ctx, "select market", func(ctx context.Context) error {
			return s.nav.SelectMarket(ctx, s.market)
		})
	}

	s.logger.Info("scrape: waiting for API capture", "deadline", s.deadline)
	capture, err := s.slots.wait(ctx, s.deadline)
	if err != nil {
		return nil, err
	}
	return capture, nil
}

// step runs one navigation transition and reports whether it succeeded.
func (s *session) step(ctx context.Context, name string, fn func(context.Context) error) bool {
	if err := fn(ctx); err != nil {
		s.logger.Debug("scrape: navigation step skipped", "step", name, "reason", err)
		return false
	}
	s.logger.Debug("scrape: navigation step done", "step", name)
	return true
}

// scheduleURLPattern matches observed schedule requests:
// api/schedule/{userId}/{lineupId}/{date}/{durationMins}.
var scheduleURLPattern = regexp.MustCompile(`api/schedule/([^/]+)/([^/]+)/(\d+)/(\d+)`)

// parseScheduleURL extracts credentials from a schedule request URL. The
// date and duration segments are informational only and are discarded.
func parseScheduleURL(url string) (Credentials, bool) {
	m := scheduleURLPattern.FindStringSubmatch(url)
	if m == nil {
		return Credentials{}, false
	}
	return Credentials{UserID: m[1], LineupID: m[2]}, true
}

type channelPayload struct {
	ChannelID    json.Number `json:"channelId"`
	ChannelIndex int         `json:"channelIndex"`
	MajorChannel int         `json:"majorChannel"`
	MinorChannel int         `json:"minorChannel"`
	CallSign     string      `json:"callSign"`
	Description  string      `json:"description"`
	Logo         string      `json:"logo"`
}

// parseChannelList decodes an intercepted channel-list response body into
// the roster.
func parseChannelList(body []byte) ([]RosterChannel, error) {
	var payload struct {
		Channels []channelPayload `json:"channels"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("scrape: decode channel list: %w", err)
	}

	roster := make([]RosterChannel, 0, len(payload.Channels))
	for _, ch := range payload.Channels {
		roster = append(roster, RosterChannel{
			Index:      ch.ChannelIndex,
			ExternalID: ch.ChannelID.String(),
			Major:      ch.MajorChannel,
			Minor:      ch.MinorChannel,
			CallSign:   ch.CallSign,
			Name:       ch.Description,
			LogoURL:    ch.Logo,
		})
	}
	return roster, nil
}
