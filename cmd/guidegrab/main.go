// CLAUDE:SUMMARY CLI entry point: cleanup, capture+fetch, XMLTV projection, atomic document write.
// Command guidegrab scrapes a broadcast TV lineup through the guide site's
// session-scoped API and republishes it as an XMLTV document.
//
// Usage:
//
//	guidegrab [flags] [zip]
//
// A positional zip code becomes the new persisted default location and
// resets the ingestion cursor, forcing a fresh horizon from the current
// time. Without it, the last persisted location is used, then the
// environment default.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/guidegrab/dbopen"
	"github.com/hazyhaar/guidegrab/scrape"
	"github.com/hazyhaar/guidegrab/store"
	"github.com/hazyhaar/guidegrab/xmltv"
)

const retentionTrail = 6 * time.Hour

func main() {
	dbPath := flag.String("db", "data/guidegrab.db", "path to the guide database")
	outPath := flag.String("out", "xmltv.xml", "path of the XMLTV output document")
	configPath := flag.String("config", "", "path to an optional guidegrab.yaml config file")
	headful := flag.Bool("headful", false, "run a visible browser instead of headless")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *dbPath, *outPath, *configPath, *headful, flag.Arg(0)); err != nil {
		logger.Error("guidegrab: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, dbPath, outPath, configPath string, headful bool, zipArg string) error {
	var cfg scrape.Config
	if configPath != "" {
		loaded, err := scrape.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = *loaded
	}
	if headful {
		cfg.Headful = true
	}

	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(store.Schema))
	if err != nil {
		return err
	}
	defer db.Close()
	st := store.NewStore(db)

	state := st.LoadRunState(ctx, logger)

	zip := zipArg
	if zip != "" {
		logger.Info("guidegrab: location override", "zip", zip)
		if err := st.SetMeta(ctx, store.MetaLastZip, zip); err != nil {
			logger.Warn("guidegrab: persist zip failed", "error", err)
		}
		// A new location means a new lineup; start the horizon over.
		if err := st.ResetCursor(ctx); err != nil {
			logger.Warn("guidegrab: cursor reset failed", "error", err)
		}
	} else if state.LastZip != "" {
		zip = state.LastZip
		logger.Info("guidegrab: using persisted location", "zip", zip)
	}

	deleted, err := st.PurgeExpired(ctx, time.Now().Add(-retentionTrail))
	if err != nil {
		return err
	}
	logger.Info("guidegrab: purged expired programs", "deleted", deleted)

	scraper := scrape.New(cfg, st, logger)
	if err := scraper.Run(ctx, zip); err != nil {
		return err
	}

	doc, err := xmltv.Build(ctx, st, time.Now())
	if err != nil {
		return err
	}
	// The document is replaced atomically: a failed run earlier in the
	// sequence leaves the previous file untouched, and a failed write
	// leaves at worst a stray .tmp.
	if err := writeAtomic(outPath, doc); err != nil {
		return err
	}
	logger.Info("guidegrab: wrote guide document", "path", outPath, "bytes", len(doc))
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
