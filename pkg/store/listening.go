package store

import (
	"context"
	"fmt"
	"time"
)

// ListeningChannels lists the source channels the bot monitors.
func (s *Store) ListeningChannels(ctx context.Context) ([]ListeningChannel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel_id, channel_name, created_at
		 FROM listening_channels ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list listening channels: %w", err)
	}
	defer rows.Close()

	var channels []ListeningChannel
	for rows.Next() {
		var lc ListeningChannel
		if err := rows.Scan(&lc.ChannelID, &lc.ChannelName, &lc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listening channel: %w", err)
		}
		channels = append(channels, lc)
	}
	return channels, rows.Err()
}

// UpsertListeningChannel registers a source channel, absorbing duplicates.
func (s *Store) UpsertListeningChannel(ctx context.Context, channelID int64, name *string) (*ListeningChannel, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO listening_channels (channel_id, channel_name, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (channel_id) DO NOTHING`,
		channelID, name, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert listening channel: %w", err)
	}

	var lc ListeningChannel
	err = s.db.QueryRowContext(ctx,
		`SELECT channel_id, channel_name, created_at
		 FROM listening_channels WHERE channel_id = $1`,
		channelID).Scan(&lc.ChannelID, &lc.ChannelName, &lc.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &lc, nil
}

// DeleteListeningChannel removes a source channel.
func (s *Store) DeleteListeningChannel(ctx context.Context, channelID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM listening_channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete listening channel: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
