// CLAUDE:SUMMARY Windowed fetch loop: cursor resolution, per-block ingestion, upsert-then-advance cursor persistence.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/guidegrab/store"
)

// eventTimeLayout matches upstream event timestamps that carry no zone;
// they are interpreted in the host's local time, the same zone the guide
// site renders.
const eventTimeLayout = "2006-01-02T15:04:05"

// Ingestor persists a capture session's output: the channel roster, then a
// fixed number of schedule windows covering the look-ahead horizon.
type Ingestor struct {
	store        *store.Store
	client       ScheduleClient
	windows      int
	blockMinutes int
	pause        time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewIngestor creates an Ingestor. cfg is expected to have defaults applied.
func NewIngestor(st *store.Store, client ScheduleClient, cfg Config, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		store:        st,
		client:       client,
		windows:      cfg.Windows,
		blockMinutes: cfg.BlockMinutes,
		pause:        cfg.WindowPause,
		logger:       logger,
		now:          time.Now,
	}
}

// Run upserts the roster and fetches the horizon window by window. The
// cursor is persisted only after a window's writes succeed, so a crash
// mid-window re-fetches that window on the next run; the upserts make the
// re-fetch convergent.
func (ing *Ingestor) Run(ctx context.Context, creds Credentials, roster []RosterChannel) error {
	index, err := ing.upsertRoster(ctx, roster)
	if err != nil {
		return err
	}
	ing.logger.Info("scrape: roster persisted", "channels", len(index))

	start := effectiveStart(ing.now(), ing.store.LoadRunState(ctx, ing.logger).Cursor)
	block := time.Duration(ing.blockMinutes) * time.Minute

	for i := 0; i < ing.windows; i++ {
		key := start.Format(windowKeyLayout)
		ing.logger.Info("scrape: fetching schedule block",
			"block", i+1, "blocks", ing.windows, "window", key)

		resp, err := ing.client.FetchWindow(ctx, creds, start, ing.blockMinutes)
		if err != nil {
			return fmt.Errorf("scrape: fetch window %s: %w", key, err)
		}

		count, err := ing.ingestWindow(ctx, resp, index)
		if err != nil {
			return fmt.Errorf("scrape: ingest window %s: %w", key, err)
		}
		ing.logger.Info("scrape: block ingested", "block", i+1, "programs", count)

		start = start.Add(block)
		if err := ing.store.SetCursor(ctx, start); err != nil {
			// Losing the cursor costs only a re-fetch next run.
			ing.logger.Warn("scrape: cursor persist failed", "error", err)
		}

		if i < ing.windows-1 && ing.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ing.pause):
			}
		}
	}
	return nil
}

// upsertRoster refreshes the channel rows and returns the roster-index to
// store-id mapping used to resolve schedule entries.
func (ing *Ingestor) upsertRoster(ctx context.Context, roster []RosterChannel) (map[int]int64, error) {
	index := make(map[int]int64, len(roster))
	for _, rc := range roster {
		id, err := ing.store.UpsertChannel(ctx, &store.Channel{
			ExternalID:    rc.ExternalID,
			ChannelNumber: rc.ChannelNumber(),
			CallSign:      rc.CallSign,
			Name:          rc.Name,
			LogoURL:       rc.LogoURL,
		})
		if err != nil {
			return nil, err
		}
		index[rc.Index] = id
	}
	return index, nil
}

// ingestWindow upserts every resolvable event of one window and returns the
// number of programs written.
func (ing *Ingestor) ingestWindow(ctx context.Context, resp *ScheduleResponse, index map[int]int64) (int, error) {
	count := 0
	for _, ch := range resp.Channels {
		channelID, ok := index[ch.Index]
		if !ok {
			// Roster and schedule coverage can disagree slightly; an
			// unresolvable reference skips the entry, never fails the run.
			ing.logger.Debug("scrape: schedule entry for unknown roster index", "index", ch.Index)
			continue
		}

		for _, day := range ch.Days {
			for _, ev := range day.Events {
				startAt, err := parseEventTime(ev.StartTime)
				if err != nil {
					ing.logger.Debug("scrape: unparsable event start", "value", ev.StartTime, "error", err)
					continue
				}
				endAt, err := parseEventTime(ev.EndTime)
				if err != nil {
					ing.logger.Debug("scrape: unparsable event end", "value", ev.EndTime, "error", err)
					continue
				}

				sub := ev.EpisodeTitle
				if sub == "" {
					sub = ev.SubTitle
				}

				err = ing.store.UpsertProgram(ctx, &store.Program{
					ChannelID:   channelID,
					Title:       ev.Title,
					SubTitle:    sub,
					Description: ev.Description,
					ImageURL:    ev.ShowCard,
					Start:       startAt,
					End:         endAt,
				})
				if err != nil {
					return count, err
				}
				count++
			}
		}
	}
	return count, nil
}

// effectiveStart picks the hour-aligned current time, or the persisted
// cursor when it is strictly after that: a run that completed part of its
// horizon resumes beyond "now", while a stale cursor left by a long outage
// is ignored and the loop restarts from the present.
func effectiveStart(now time.Time, cursor *time.Time) time.Time {
	start := now.Truncate(time.Hour)
	if cursor != nil && cursor.After(start) {
		return *cursor
	}
	return start
}

func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(eventTimeLayout, s, time.Local)
}
