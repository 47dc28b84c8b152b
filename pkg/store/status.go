package store

import (
	"context"
	"fmt"
	"time"
)

// BotStatus returns the shared bot state row.
func (s *Store) BotStatus(ctx context.Context) (*BotStatus, error) {
	var st BotStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT is_running, last_heartbeat, cache_version, cache_updated_at
		 FROM bot_status WHERE id = 1`).
		Scan(&st.IsRunning, &st.LastHeartbeat, &st.CacheVersion, &st.CacheUpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}

// InvalidateCache bumps the cache version the bot polls. Called after every
// mutation that changes what the bot should forward.
func (s *Store) InvalidateCache(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bot_status SET cache_version = cache_version + 1, cache_updated_at = $1 WHERE id = 1`,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Heartbeat records that the bot process is alive.
func (s *Store) Heartbeat(ctx context.Context, running bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bot_status SET is_running = $1, last_heartbeat = $2 WHERE id = 1`,
		running, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return nil
}
