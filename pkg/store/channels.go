package store

import (
	"context"
	"fmt"
	"time"
)

const channelColumns = `channel_id, channel_name, channel_username, channel_photo,
	member_count, description, is_joined, last_updated, created_at`

func scanChannel(row interface{ Scan(...any) error }) (*Channel, error) {
	var c Channel
	err := row.Scan(&c.ChannelID, &c.ChannelName, &c.ChannelUsername, &c.ChannelPhoto,
		&c.MemberCount, &c.Description, &c.IsJoined, &c.LastUpdated, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Channels returns every known channel, newest first.
func (s *Store) Channels(ctx context.Context) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, *c)
	}
	return channels, rows.Err()
}

// ChannelByID returns a single channel or ErrNotFound.
func (s *Store) ChannelByID(ctx context.Context, channelID int64) (*Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE channel_id = $1`, channelID)
	return scanChannel(row)
}

// CreateChannelIfMissing inserts a bare channel row if one does not exist,
// leaving existing metadata untouched.
func (s *Store) CreateChannelIfMissing(ctx context.Context, channelID int64, name *string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (channel_id, channel_name, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (channel_id) DO NOTHING`,
		channelID, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// ChannelMetadata is the refreshable Telegram-side state of a channel.
type ChannelMetadata struct {
	ChannelID       int64
	ChannelName     *string
	ChannelUsername *string
	ChannelPhoto    *string
	MemberCount     *int
	Description     *string
	IsJoined        bool
}

// UpsertChannelMetadata writes metadata fetched from Telegram, creating the
// channel row if needed.
func (s *Store) UpsertChannelMetadata(ctx context.Context, m ChannelMetadata) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (channel_id, channel_name, channel_username, channel_photo,
		        member_count, description, is_joined, last_updated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (channel_id) DO UPDATE SET
		        channel_name = EXCLUDED.channel_name,
		        channel_username = EXCLUDED.channel_username,
		        channel_photo = EXCLUDED.channel_photo,
		        member_count = EXCLUDED.member_count,
		        description = EXCLUDED.description,
		        is_joined = EXCLUDED.is_joined,
		        last_updated = EXCLUDED.last_updated`,
		m.ChannelID, m.ChannelName, m.ChannelUsername, m.ChannelPhoto,
		m.MemberCount, m.Description, m.IsJoined, now)
	if err != nil {
		return fmt.Errorf("failed to upsert channel metadata: %w", err)
	}
	return nil
}

// DeleteChannel removes a channel. Assignments and filters cascade.
func (s *Store) DeleteChannel(ctx context.Context, channelID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetChannelPause sets the paused flag on every assignment of a channel.
// Returns ErrNotFound when the channel does not exist; a channel with no
// assignments is not an error.
func (s *Store) SetChannelPause(ctx context.Context, channelID int64, paused bool) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM channels WHERE channel_id = $1`, channelID).Scan(&one)
	if err != nil {
		return notFound(err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE user_channels SET paused = $1 WHERE channel_id = $2`,
		paused, channelID)
	if err != nil {
		return fmt.Errorf("failed to set channel pause: %w", err)
	}
	return nil
}

// ChannelOverview is a channel annotated with the aggregates the panel's
// channel list shows.
type ChannelOverview struct {
	Channel
	AdminCount int   `json:"adminCount"`
	Today      int64 `json:"today"`
	Week       int64 `json:"week"`
	Month      int64 `json:"month"`
}

// ChannelOverviews lists every channel with its assignment count and
// forwarding volume over the standard windows.
func (s *Store) ChannelOverviews(ctx context.Context) ([]ChannelOverview, error) {
	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	weekAgo := now.AddDate(0, 0, -7).Format("2006-01-02")
	monthAgo := now.AddDate(0, 0, -30).Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.channel_id, c.channel_name, c.channel_username, c.channel_photo,
		        c.member_count, c.description, c.is_joined, c.last_updated, c.created_at,
		        (SELECT COUNT(*) FROM user_channels uc WHERE uc.channel_id = c.channel_id),
		        COALESCE((SELECT SUM(cs.daily_count) FROM channel_stats cs
		                  WHERE cs.channel_id = c.channel_id AND cs.stat_date = $1), 0),
		        COALESCE((SELECT SUM(cs.daily_count) FROM channel_stats cs
		                  WHERE cs.channel_id = c.channel_id AND cs.stat_date >= $2), 0),
		        COALESCE((SELECT SUM(cs.daily_count) FROM channel_stats cs
		                  WHERE cs.channel_id = c.channel_id AND cs.stat_date >= $3), 0)
		 FROM channels c
		 ORDER BY c.created_at DESC`, today, weekAgo, monthAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel overviews: %w", err)
	}
	defer rows.Close()

	var out []ChannelOverview
	for rows.Next() {
		var o ChannelOverview
		err := rows.Scan(&o.ChannelID, &o.ChannelName, &o.ChannelUsername, &o.ChannelPhoto,
			&o.MemberCount, &o.Description, &o.IsJoined, &o.LastUpdated, &o.CreatedAt,
			&o.AdminCount, &o.Today, &o.Week, &o.Month)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel overview: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ChannelAdmin is a user holding an assignment on a channel.
type ChannelAdmin struct {
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Paused      bool   `json:"paused"`
}

// ChannelAdmins lists the users assigned to a channel.
func (s *Store) ChannelAdmins(ctx context.Context, channelID int64) ([]ChannelAdmin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.display_name, uc.paused
		 FROM user_channels uc
		 JOIN users u ON u.id = uc.user_id
		 WHERE uc.channel_id = $1
		 ORDER BY u.username`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel admins: %w", err)
	}
	defer rows.Close()

	var admins []ChannelAdmin
	for rows.Next() {
		var a ChannelAdmin
		if err := rows.Scan(&a.UserID, &a.Username, &a.DisplayName, &a.Paused); err != nil {
			return nil, fmt.Errorf("failed to scan channel admin: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}
