package scrape

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// attachInterceptor subscribes to the page's network responses and fills the
// capture slots. The EachEvent goroutine is the sole writer of the slots;
// everything else only reads.
func attachInterceptor(page *rod.Page, slots *captureSlots, logger *slog.Logger) error {
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return fmt.Errorf("scrape: enable network domain: %w", err)
	}

	go page.EachEvent(func(e *proto.NetworkResponseReceived) {
		url := e.Response.URL

		if strings.Contains(url, "api/channel") && !slots.hasRoster() {
			body, err := responseBody(page, e.RequestID)
			if err != nil {
				logger.Debug("scrape: channel response body unavailable", "url", url, "error", err)
				return
			}
			roster, err := parseChannelList(body)
			if err != nil || len(roster) == 0 {
				return
			}
			if slots.setRoster(roster) {
				logger.Info("scrape: captured channel roster", "channels", len(roster))
			}
		}

		if creds, ok := parseScheduleURL(url); ok {
			if slots.setCredentials(creds) {
				logger.Info("scrape: captured schedule credentials",
					"user", creds.UserID, "lineup", creds.LineupID)
			}
		}
	})()

	return nil
}

func responseBody(page *rod.Page, id proto.NetworkRequestID) ([]byte, error) {
	res, err := proto.NetworkGetResponseBody{RequestID: id}.Call(page)
	if err != nil {
		return nil, err
	}
	if res.Base64Encoded {
		return base64.StdEncoding.DecodeString(res.Body)
	}
	return []byte(res.Body), nil
}
