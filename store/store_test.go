package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.Exec("PRAGMA foreign_keys=ON")
	if err := ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApplySchema(t *testing.T) {
	// WHAT: Verify the schema creates all tables without error.
	// WHY: Every other operation assumes these tables exist.
	db := openTestDB(t)
	for _, table := range []string{"channels", "programs", "metadata"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestUpsertChannelIdempotent(t *testing.T) {
	// WHAT: Two upserts with the same external_id yield one row, the second
	// call's field values, and a stable id.
	// WHY: The roster is re-ingested on every run; duplicates would corrupt
	// the projection and break program attribution.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	id1, err := s.UpsertChannel(ctx, &Channel{
		ExternalID:    "101",
		ChannelNumber: "7.1",
		CallSign:      "WXYZ",
		Name:          "WXYZ-DT",
		LogoURL:       "https://img.example/wxyz.png",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	id2, err := s.UpsertChannel(ctx, &Channel{
		ExternalID:    "101",
		ChannelNumber: "7.1",
		CallSign:      "WXYZ",
		Name:          "WXYZ HD",
		LogoURL:       "",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Errorf("id changed across upserts: %d != %d", id1, id2)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM channels`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("channel rows = %d, want 1", count)
	}

	channels, err := s.Channels(ctx)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if channels[0].Name != "WXYZ HD" {
		t.Errorf("name = %q, want latest value %q", channels[0].Name, "WXYZ HD")
	}
	if channels[0].LogoURL != "" {
		t.Errorf("logo_url = %q, want overwritten empty value", channels[0].LogoURL)
	}
}

func TestUpsertProgramIdempotent(t *testing.T) {
	// WHAT: Two upserts with the same (channel_id, start_time) yield one row
	// with the latest mutable fields; start_time is unchanged.
	// WHY: Windows are re-fetched after a crash; at-least-once fetch must
	// stay exactly-once-effective.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	chID, err := s.UpsertChannel(ctx, &Channel{ExternalID: "101", ChannelNumber: "7.1", CallSign: "WXYZ"})
	if err != nil {
		t.Fatalf("upsert channel: %v", err)
	}

	start := time.Date(2026, 1, 3, 19, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	if err := s.UpsertProgram(ctx, &Program{
		ChannelID: chID, Title: "News", Start: start, End: end,
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertProgram(ctx, &Program{
		ChannelID: chID, Title: "Evening News", SubTitle: "Local", Start: start, End: end.Add(30 * time.Minute),
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	programs, err := s.ProgramsInRange(ctx, chID, start.Add(-time.Hour), start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(programs) != 1 {
		t.Fatalf("program rows = %d, want 1", len(programs))
	}
	p := programs[0]
	if p.Title != "Evening News" {
		t.Errorf("title = %q, want latest value", p.Title)
	}
	if p.SubTitle != "Local" {
		t.Errorf("sub_title = %q, want %q", p.SubTitle, "Local")
	}
	if !p.Start.Equal(start) {
		t.Errorf("start moved: %v != %v", p.Start, start)
	}
	if !p.End.Equal(end.Add(30 * time.Minute)) {
		t.Errorf("end = %v, want revised end", p.End)
	}
}

func TestProgramsInRangeBoundaries(t *testing.T) {
	// WHAT: Range is [start, end): the lower bound is inclusive, the upper
	// exclusive, and results come back ordered by start_time.
	// WHY: The projection's -2h window boundary depends on inclusive >=.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	chID, _ := s.UpsertChannel(ctx, &Channel{ExternalID: "1", ChannelNumber: "2.1"})

	base := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	for _, off := range []time.Duration{-time.Second, 0, time.Hour, 2 * time.Hour} {
		st := base.Add(off)
		if err := s.UpsertProgram(ctx, &Program{ChannelID: chID, Title: "p", Start: st, End: st.Add(time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}

	programs, err := s.ProgramsInRange(ctx, chID, base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(programs) != 2 {
		t.Fatalf("got %d programs, want 2 (inclusive lower, exclusive upper)", len(programs))
	}
	if !programs[0].Start.Equal(base) {
		t.Errorf("first program start = %v, want exact lower bound %v", programs[0].Start, base)
	}
	if !programs[0].Start.Before(programs[1].Start) {
		t.Error("programs not ordered by start_time")
	}
}

func TestPurgeExpired(t *testing.T) {
	// WHAT: PurgeExpired removes programs ending before the threshold and
	// leaves everything at or after it untouched.
	// WHY: Retention bounds storage growth without eating current data.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	chID, _ := s.UpsertChannel(ctx, &Channel{ExternalID: "1", ChannelNumber: "2.1"})

	now := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	threshold := now.Add(-6 * time.Hour)

	old := now.Add(-8 * time.Hour)
	s.UpsertProgram(ctx, &Program{ChannelID: chID, Title: "old", Start: old, End: threshold.Add(-time.Second)})
	s.UpsertProgram(ctx, &Program{ChannelID: chID, Title: "edge", Start: old.Add(time.Hour), End: threshold})
	s.UpsertProgram(ctx, &Program{ChannelID: chID, Title: "new", Start: now, End: now.Add(time.Hour)})

	deleted, err := s.PurgeExpired(ctx, threshold)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM programs WHERE end_time < ?`, threshold.Unix()).Scan(&count)
	if count != 0 {
		t.Errorf("%d expired programs survived the purge", count)
	}
	db.QueryRow(`SELECT COUNT(*) FROM programs`).Scan(&count)
	if count != 2 {
		t.Errorf("remaining programs = %d, want 2", count)
	}
}

func TestMetadata(t *testing.T) {
	// WHAT: GetMeta returns "" for absent keys; SetMeta is last-write-wins.
	// WHY: The cursor contract treats empty string as "absent".
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	v, err := s.GetMeta(ctx, "missing")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if v != "" {
		t.Errorf("absent key = %q, want empty", v)
	}

	s.SetMeta(ctx, "k", "one")
	s.SetMeta(ctx, "k", "two")
	v, _ = s.GetMeta(ctx, "k")
	if v != "two" {
		t.Errorf("value = %q, want last write", v)
	}
}

func TestLoadRunState(t *testing.T) {
	// WHAT: RunState maps the kv rows into a typed record; unparsable
	// cursors degrade to nil instead of failing the run.
	// WHY: MetadataAccessFailure is recovered locally per the error design.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	state := s.LoadRunState(ctx, logger)
	if state.Cursor != nil {
		t.Errorf("cursor = %v, want nil on fresh db", state.Cursor)
	}
	if state.LastZip != "" {
		t.Errorf("last zip = %q, want empty", state.LastZip)
	}

	cursor := time.Date(2026, 1, 4, 6, 0, 0, 0, time.UTC)
	if err := s.SetCursor(ctx, cursor); err != nil {
		t.Fatal(err)
	}
	s.SetMeta(ctx, MetaLastZip, "46725")

	state = s.LoadRunState(ctx, logger)
	if state.Cursor == nil || !state.Cursor.Equal(cursor) {
		t.Errorf("cursor = %v, want %v", state.Cursor, cursor)
	}
	if state.LastZip != "46725" {
		t.Errorf("last zip = %q, want 46725", state.LastZip)
	}

	s.SetMeta(ctx, MetaCursor, "not-a-time")
	state = s.LoadRunState(ctx, logger)
	if state.Cursor != nil {
		t.Errorf("unparsable cursor should load as nil, got %v", state.Cursor)
	}

	if err := s.ResetCursor(ctx); err != nil {
		t.Fatal(err)
	}
	raw, _ := s.GetMeta(ctx, MetaCursor)
	if raw != "" {
		t.Errorf("reset cursor = %q, want empty", raw)
	}
}
