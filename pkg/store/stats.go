package store

import (
	"context"
	"fmt"
	"time"
)

// ChannelVolume is aggregate forwarding volume for one channel.
type ChannelVolume struct {
	ChannelID   int64   `json:"channelId,string"`
	ChannelName *string `json:"channelName"`
	Total       int64   `json:"total"`
}

// StatsSummary aggregates forwarding volume over the standard windows.
type StatsSummary struct {
	Today    int64           `json:"today"`
	Week     int64           `json:"week"`
	Month    int64           `json:"month"`
	Channels []ChannelVolume `json:"channels"`
}

// RecordForward bumps the daily counter for a channel. The bot is the
// normal writer; the panel uses it for seeding and tests.
func (s *Store) RecordForward(ctx context.Context, channelID int64, day time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channel_stats (channel_id, stat_date, daily_count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (channel_id, stat_date) DO UPDATE SET daily_count = channel_stats.daily_count + 1`,
		channelID, day.UTC().Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to record forward: %w", err)
	}
	return nil
}

// UserStats aggregates forwarding volume over the channels assigned to one
// user: today, the trailing 7 days, the trailing 30 days, and the per-channel
// 30-day distribution.
func (s *Store) UserStats(ctx context.Context, userID int64) (*StatsSummary, error) {
	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	weekAgo := now.AddDate(0, 0, -7).Format("2006-01-02")
	monthAgo := now.AddDate(0, 0, -30).Format("2006-01-02")

	var out StatsSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT
		    COALESCE(SUM(CASE WHEN cs.stat_date = $2 THEN cs.daily_count ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN cs.stat_date >= $3 THEN cs.daily_count ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN cs.stat_date >= $4 THEN cs.daily_count ELSE 0 END), 0)
		 FROM channel_stats cs
		 JOIN user_channels uc ON uc.channel_id = cs.channel_id
		 WHERE uc.user_id = $1`,
		userID, today, weekAgo, monthAgo).Scan(&out.Today, &out.Week, &out.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cs.channel_id, c.channel_name, COALESCE(SUM(cs.daily_count), 0)
		 FROM channel_stats cs
		 JOIN user_channels uc ON uc.channel_id = cs.channel_id
		 LEFT JOIN channels c ON c.channel_id = cs.channel_id
		 WHERE uc.user_id = $1 AND cs.stat_date >= $2
		 GROUP BY cs.channel_id, c.channel_name
		 ORDER BY 3 DESC`,
		userID, monthAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate channel distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v ChannelVolume
		if err := rows.Scan(&v.ChannelID, &v.ChannelName, &v.Total); err != nil {
			return nil, fmt.Errorf("failed to scan channel volume: %w", err)
		}
		out.Channels = append(out.Channels, v)
	}
	return &out, rows.Err()
}

// AdminStats is the system-wide dashboard summary.
type AdminStats struct {
	Users             int64           `json:"users"`
	ActiveUsers       int64           `json:"activeUsers"`
	BannedUsers       int64           `json:"bannedUsers"`
	Channels          int64           `json:"channels"`
	ListeningChannels int64           `json:"listeningChannels"`
	Keywords          int64           `json:"keywords"`
	BannedWords       int64           `json:"bannedWords"`
	Forwards          StatsSummary    `json:"forwards"`
	TopChannels       []ChannelVolume `json:"topChannels"`
}

// SystemStats aggregates the admin dashboard summary across every account
// and channel.
func (s *Store) SystemStats(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	err := s.db.QueryRowContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM users),
		    (SELECT COUNT(*) FROM users WHERE is_active AND NOT is_banned),
		    (SELECT COUNT(*) FROM users WHERE is_banned),
		    (SELECT COUNT(*) FROM channels),
		    (SELECT COUNT(*) FROM listening_channels),
		    (SELECT COUNT(*) FROM keywords),
		    (SELECT COUNT(*) FROM banned_words)`).
		Scan(&out.Users, &out.ActiveUsers, &out.BannedUsers, &out.Channels,
			&out.ListeningChannels, &out.Keywords, &out.BannedWords)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate counts: %w", err)
	}

	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	weekAgo := now.AddDate(0, 0, -7).Format("2006-01-02")
	monthAgo := now.AddDate(0, 0, -30).Format("2006-01-02")

	err = s.db.QueryRowContext(ctx,
		`SELECT
		    COALESCE(SUM(CASE WHEN stat_date = $1 THEN daily_count ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN stat_date >= $2 THEN daily_count ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN stat_date >= $3 THEN daily_count ELSE 0 END), 0)
		 FROM channel_stats`,
		today, weekAgo, monthAgo).Scan(&out.Forwards.Today, &out.Forwards.Week, &out.Forwards.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate forward totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cs.channel_id, c.channel_name, COALESCE(SUM(cs.daily_count), 0) AS total
		 FROM channel_stats cs
		 LEFT JOIN channels c ON c.channel_id = cs.channel_id
		 WHERE cs.stat_date >= $1
		 GROUP BY cs.channel_id, c.channel_name
		 ORDER BY total DESC
		 LIMIT 10`, monthAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top channels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v ChannelVolume
		if err := rows.Scan(&v.ChannelID, &v.ChannelName, &v.Total); err != nil {
			return nil, fmt.Errorf("failed to scan top channel: %w", err)
		}
		out.TopChannels = append(out.TopChannels, v)
	}
	return &out, rows.Err()
}
