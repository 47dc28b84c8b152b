package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertLog records an operational log line. The audit recorder writes
// through this method.
func (s *Store) InsertLog(ctx context.Context, level, message string, details *string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_logs (level, message, details, created_at) VALUES ($1, $2, $3, $4)`,
		level, message, details, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}
	return nil
}

// LogsPage is one page of log lines plus the unpaged total for the filter.
type LogsPage struct {
	Logs  []BotLog `json:"logs"`
	Total int64    `json:"total"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
}

// Logs returns a page of log lines, newest first, optionally restricted to
// one level. Page numbering starts at 1.
func (s *Store) Logs(ctx context.Context, page, limit int, level string) (*LogsPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := (page - 1) * limit

	var total int64
	var rows *sql.Rows
	var err error

	if level != "" {
		if err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bot_logs WHERE level = $1`, level).Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to count logs: %w", err)
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, level, message, details, created_at FROM bot_logs
			 WHERE level = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			level, limit, offset)
	} else {
		if err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bot_logs`).Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to count logs: %w", err)
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, level, message, details, created_at FROM bot_logs
			 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	out := LogsPage{Total: total, Page: page, Limit: limit}
	for rows.Next() {
		var l BotLog
		if err := rows.Scan(&l.ID, &l.Level, &l.Message, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		out.Logs = append(out.Logs, l)
	}
	return &out, rows.Err()
}

// PurgeLogs deletes log lines older than the given number of days and
// returns how many were removed.
func (s *Store) PurgeLogs(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bot_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge logs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged logs: %w", err)
	}
	return affected, nil
}
