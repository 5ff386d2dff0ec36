package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
)

// windowKeyLayout is the textual date-time key of a schedule window.
const windowKeyLayout = "200601021504"

// pageScheduleClient fetches schedule windows by evaluating fetch() inside
// the captured page, so requests carry the session's cookies and headers.
type pageScheduleClient struct {
	page    *rod.Page
	baseURL string
	logger  *slog.Logger
}

func (c *pageScheduleClient) FetchWindow(ctx context.Context, creds Credentials, start time.Time, blockMinutes int) (*ScheduleResponse, error) {
	key := start.Format(windowKeyLayout)
	url := fmt.Sprintf("%s/api/schedule/%s/%s/%s/%d",
		strings.TrimRight(c.baseURL, "/"), creds.UserID, creds.LineupID, key, blockMinutes)

	res, err := c.page.Context(ctx).Eval(`async (url) => {
		const res = await fetch(url);
		return res.json();
	}`, url)
	if err != nil {
		return nil, fmt.Errorf("scrape: schedule window %s: %w", key, err)
	}

	resp := decodeSchedule(res.Value)
	c.logger.Debug("scrape: schedule window fetched", "window", key, "channels", len(resp.Channels))
	return resp, nil
}

// decodeSchedule maps the upstream payload onto ScheduleResponse. Missing
// substructure yields empty slices, never an error: a window with no data
// is a valid no-op.
func decodeSchedule(v gson.JSON) *ScheduleResponse {
	resp := &ScheduleResponse{}
	if !v.Has("channels") {
		return resp
	}

	for _, ch := range v.Get("channels").Arr() {
		sc := ScheduleChannel{Index: intField(ch, "channelIndex")}
		if ch.Has("days") {
			for _, day := range ch.Get("days").Arr() {
				sd := ScheduleDay{}
				if day.Has("events") {
					for _, ev := range day.Get("events").Arr() {
						sd.Events = append(sd.Events, ScheduleEvent{
							StartTime:    strField(ev, "startTime"),
							EndTime:      strField(ev, "endTime"),
							Title:        strField(ev, "title"),
							EpisodeTitle: strField(ev, "episodeTitle"),
							SubTitle:     strField(ev, "subTitle"),
							Description:  strField(ev, "description"),
							ShowCard:     strField(ev, "showCard"),
						})
					}
				}
				sc.Days = append(sc.Days, sd)
			}
		}
		resp.Channels = append(resp.Channels, sc)
	}
	return resp
}

func strField(v gson.JSON, key string) string {
	if !v.Has(key) {
		return ""
	}
	s, _ := v.Get(key).Val().(string)
	return s
}

func intField(v gson.JSON, key string) int {
	if !v.Has(key) {
		return -1
	}
	return v.Get(key).Int()
}
