package store

import (
	"context"
	"fmt"
	"time"
)

// AdminLinksForUser lists the invite links a user has generated.
func (s *Store) AdminLinksForUser(ctx context.Context, userID int64) ([]AdminLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, channel_id, link_code, link_url, created_at
		 FROM admin_links WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin links: %w", err)
	}
	defer rows.Close()

	var links []AdminLink
	for rows.Next() {
		var l AdminLink
		if err := rows.Scan(&l.ID, &l.UserID, &l.ChannelID, &l.LinkCode, &l.LinkURL, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// UpsertAdminLink records a generated invite link, absorbing duplicates of
// the same (user, channel, code) triple.
func (s *Store) UpsertAdminLink(ctx context.Context, userID, channelID int64, code, url string) (*AdminLink, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_links (user_id, channel_id, link_code, link_url, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, channel_id, link_code) DO UPDATE SET link_url = EXCLUDED.link_url`,
		userID, channelID, code, url, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert admin link: %w", err)
	}

	var l AdminLink
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, channel_id, link_code, link_url, created_at
		 FROM admin_links WHERE user_id = $1 AND channel_id = $2 AND link_code = $3`,
		userID, channelID, code).Scan(&l.ID, &l.UserID, &l.ChannelID, &l.LinkCode, &l.LinkURL, &l.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// DeleteAdminLink removes a link by id, scoped to its owner.
func (s *Store) DeleteAdminLink(ctx context.Context, userID, linkID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM admin_links WHERE id = $1 AND user_id = $2`, linkID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete admin link: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
