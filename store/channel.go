package store

import (
	"context"
	"fmt"
)

// UpsertChannel creates the channel if external_id is new, otherwise
// overwrites the four mutable fields on the existing row. The returned id is
// stable across calls, so the ingestion loop may call this once per roster
// entry per run indefinitely.
func (s *Store) UpsertChannel(ctx context.Context, ch *Channel) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO channels (external_id, channel_number, callsign, name, logo_url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			channel_number = excluded.channel_number,
			callsign       = excluded.callsign,
			name           = excluded.name,
			logo_url       = excluded.logo_url
		RETURNING id`,
		ch.ExternalID, ch.ChannelNumber, ch.CallSign, ch.Name, ch.LogoURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: upsert channel %s: %w", ch.ExternalID, err)
	}
	return id, nil
}

// Channels returns all channels ordered by channel_number. This is the
// projection order: channel_number is a display string ("7.1"), so the
// ordering is lexical, matching how the lineup presents itself.
func (s *Store) Channels(ctx context.Context) ([]Channel, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, external_id, channel_number, callsign, name, logo_url
		FROM channels ORDER BY channel_number`)
	if err != nil {
		return nil, fmt.Errorf("store: list channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.ID, &ch.ExternalID, &ch.ChannelNumber, &ch.CallSign, &ch.Name, &ch.LogoURL); err != nil {
			return nil, fmt.Errorf("store: scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}
