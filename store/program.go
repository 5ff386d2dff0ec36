package store

import (
	"context"
	"fmt"
	"time"
)

// UpsertProgram creates the program if (channel_id, start_time) is new,
// otherwise overwrites title, sub_title, description, image_url and end_time
// on the existing row. start_time is the identity and is never updated.
func (s *Store) UpsertProgram(ctx context.Context, p *Program) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO programs (channel_id, title, sub_title, description, image_url, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, start_time) DO UPDATE SET
			title       = excluded.title,
			sub_title   = excluded.sub_title,
			description = excluded.description,
			image_url   = excluded.image_url,
			end_time    = excluded.end_time`,
		p.ChannelID, p.Title, p.SubTitle, p.Description, p.ImageURL,
		p.Start.Unix(), p.End.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert program ch=%d start=%d: %w", p.ChannelID, p.Start.Unix(), err)
	}
	return nil
}

// ProgramsInRange returns the channel's programs with start_time in
// [start, end), ordered by start_time ascending.
func (s *Store) ProgramsInRange(ctx context.Context, channelID int64, start, end time.Time) ([]Program, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, channel_id, title, sub_title, description, image_url, start_time, end_time
		FROM programs
		WHERE channel_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		channelID, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("store: programs in range: %w", err)
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var p Program
		var startUnix, endUnix int64
		if err := rows.Scan(&p.ID, &p.ChannelID, &p.Title, &p.SubTitle, &p.Description, &p.ImageURL, &startUnix, &endUnix); err != nil {
			return nil, fmt.Errorf("store: scan program: %w", err)
		}
		p.Start = time.Unix(startUnix, 0)
		p.End = time.Unix(endUnix, 0)
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// PurgeExpired deletes every program whose end_time is before threshold and
// returns the number of rows removed. Called once per run before fetching to
// bound storage growth while keeping a short trailing history.
func (s *Store) PurgeExpired(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM programs WHERE end_time < ?`, threshold.Unix())
	if err != nil {
		return 0, fmt.Errorf("store: purge expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: purge rows affected: %w", err)
	}
	return n, nil
}
