package store

import (
	"context"
	"fmt"
	"time"
)

// AssignmentsForUser returns a user's channel assignments joined with the
// channel metadata the dashboard renders.
func (s *Store) AssignmentsForUser(ctx context.Context, userID int64) ([]UserChannel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uc.id, uc.user_id, uc.channel_id, uc.paused, uc.filter_mode, uc.created_at,
		        c.channel_id, c.channel_name, c.channel_username, c.channel_photo,
		        c.member_count, c.description, c.is_joined, c.last_updated, c.created_at
		 FROM user_channels uc
		 JOIN channels c ON c.channel_id = uc.channel_id
		 WHERE uc.user_id = $1
		 ORDER BY uc.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []UserChannel
	for rows.Next() {
		var uc UserChannel
		var c Channel
		err := rows.Scan(&uc.ID, &uc.UserID, &uc.ChannelID, &uc.Paused, &uc.FilterMode, &uc.CreatedAt,
			&c.ChannelID, &c.ChannelName, &c.ChannelUsername, &c.ChannelPhoto,
			&c.MemberCount, &c.Description, &c.IsJoined, &c.LastUpdated, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		uc.Channel = &c
		out = append(out, uc)
	}
	return out, rows.Err()
}

// HasAssignment reports whether the user holds an assignment on the channel.
func (s *Store) HasAssignment(ctx context.Context, userID, channelID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_channels WHERE user_id = $1 AND channel_id = $2`,
		userID, channelID).Scan(&one)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return true, nil
}

// UpsertAssignment assigns a channel to a user. Re-assigning an existing
// pair is a no-op that returns the existing row.
func (s *Store) UpsertAssignment(ctx context.Context, userID, channelID int64) (*UserChannel, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_channels (user_id, channel_id, paused, filter_mode, created_at)
		 VALUES ($1, $2, FALSE, 'all', $3)
		 ON CONFLICT (user_id, channel_id) DO NOTHING`,
		userID, channelID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert assignment: %w", err)
	}

	var uc UserChannel
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, channel_id, paused, filter_mode, created_at
		 FROM user_channels WHERE user_id = $1 AND channel_id = $2`,
		userID, channelID).Scan(&uc.ID, &uc.UserID, &uc.ChannelID, &uc.Paused, &uc.FilterMode, &uc.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &uc, nil
}

// DeleteAssignment removes a user/channel pair.
func (s *Store) DeleteAssignment(ctx context.Context, userID, channelID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_channels WHERE user_id = $1 AND channel_id = $2`,
		userID, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAssignmentPause pauses or resumes forwarding for one assignment.
func (s *Store) SetAssignmentPause(ctx context.Context, userID, channelID int64, paused bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_channels SET paused = $1 WHERE user_id = $2 AND channel_id = $3`,
		paused, userID, channelID)
	if err != nil {
		return fmt.Errorf("failed to set pause: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAssignmentFilterMode switches an assignment between forwarding
// everything and forwarding only filter matches.
func (s *Store) SetAssignmentFilterMode(ctx context.Context, userID, channelID int64, mode string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_channels SET filter_mode = $1 WHERE user_id = $2 AND channel_id = $3`,
		mode, userID, channelID)
	if err != nil {
		return fmt.Errorf("failed to set filter mode: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
