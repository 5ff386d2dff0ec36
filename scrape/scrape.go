// CLAUDE:SUMMARY Single-run scrape orchestration: browser lifecycle, capture session, windowed ingestion.
// Package scrape drives a controlled browser against the guide site,
// captures the session-scoped API credentials and channel roster from the
// page's own network traffic, and pages a bounded schedule horizon into the
// store through idempotent upserts.
//
// The upstream has no stable public endpoint: the only way to obtain a
// usable schedule API is to let the site issue its own requests and observe
// them. Everything brittle about that (selectors, timing) is confined to the
// Navigator adapter; the capture state machine and the fetch loop are plain
// Go over interfaces and are exercised in tests without a browser.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/guidegrab/store"
)

// Scraper runs one capture+fetch pass against the guide site.
type Scraper struct {
	cfg    Config
	store  *store.Store
	logger *slog.Logger
}

// New creates a Scraper. Config defaults are applied here.
func New(cfg Config, st *store.Store, logger *slog.Logger) *Scraper {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{cfg: cfg, store: st, logger: logger}
}

// Run executes one full capture+fetch pass for the given location code
// (falling back to the configured default when empty). The browser is a
// scoped resource: it is closed on every exit path.
func (s *Scraper) Run(ctx context.Context, zip string) error {
	if zip == "" {
		zip = s.cfg.ZipCode
	}

	page, cleanup, err := launchBrowser(s.cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	slots := newCaptureSlots()
	if err := attachInterceptor(page, slots, s.logger); err != nil {
		return err
	}

	s.logger.Info("scrape: navigating", "url", s.cfg.BaseURL, "zip", zip)
	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := page.Context(navCtx).Navigate(s.cfg.BaseURL); err != nil {
		return fmt.Errorf("scrape: navigate %s: %w", s.cfg.BaseURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.logger.Warn("scrape: wait load timeout", "error", err)
	}

	nav := newRodNavigator(page, s.cfg, s.logger)
	sess := newSession(nav, slots, s.cfg, s.logger)
	capture, err := sess.run(ctx, zip)
	if err != nil {
		return err
	}

	client := &pageScheduleClient{page: page, baseURL: s.cfg.BaseURL, logger: s.logger}
	ing := NewIngestor(s.store, client, s.cfg, s.logger)
	return ing.Run(ctx, capture.Credentials, capture.Roster)
}
