package store

import (
	"context"
	"fmt"
	"time"
)

// ChannelFilters lists the per-channel keyword filters for a channel.
func (s *Store) ChannelFilters(ctx context.Context, channelID int64) ([]ChannelFilter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, keyword, created_at
		 FROM channel_filters WHERE channel_id = $1 ORDER BY keyword`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel filters: %w", err)
	}
	defer rows.Close()

	var filters []ChannelFilter
	for rows.Next() {
		var f ChannelFilter
		if err := rows.Scan(&f.ID, &f.ChannelID, &f.Keyword, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan channel filter: %w", err)
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}

// UpsertChannelFilter adds a keyword filter to a channel; duplicates are
// absorbed and the existing row returned.
func (s *Store) UpsertChannelFilter(ctx context.Context, channelID int64, keyword string) (*ChannelFilter, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channel_filters (channel_id, keyword, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (channel_id, keyword) DO NOTHING`,
		channelID, keyword, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert channel filter: %w", err)
	}

	var f ChannelFilter
	err = s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, keyword, created_at
		 FROM channel_filters WHERE channel_id = $1 AND keyword = $2`,
		channelID, keyword).Scan(&f.ID, &f.ChannelID, &f.Keyword, &f.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// DeleteChannelFilter removes a single filter by id, scoped to its channel.
func (s *Store) DeleteChannelFilter(ctx context.Context, channelID, filterID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM channel_filters WHERE id = $1 AND channel_id = $2`,
		filterID, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete channel filter: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
