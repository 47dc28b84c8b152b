package store

import (
	"context"
	"fmt"
	"time"
)

// Keywords lists the global match keywords.
func (s *Store) Keywords(ctx context.Context) ([]Keyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keyword, created_at FROM keywords ORDER BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.ID, &k.Keyword, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// UpsertKeyword adds a global keyword, absorbing duplicates.
func (s *Store) UpsertKeyword(ctx context.Context, keyword string) (*Keyword, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO keywords (keyword, created_at) VALUES ($1, $2)
		 ON CONFLICT (keyword) DO NOTHING`,
		keyword, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert keyword: %w", err)
	}

	var k Keyword
	err = s.db.QueryRowContext(ctx,
		`SELECT id, keyword, created_at FROM keywords WHERE keyword = $1`,
		keyword).Scan(&k.ID, &k.Keyword, &k.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

// DeleteKeyword removes a global keyword by id.
func (s *Store) DeleteKeyword(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM keywords WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete keyword: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// BannedWords lists the global content blocklist.
func (s *Store) BannedWords(ctx context.Context) ([]BannedWord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, word, created_at FROM banned_words ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("failed to list banned words: %w", err)
	}
	defer rows.Close()

	var words []BannedWord
	for rows.Next() {
		var w BannedWord
		if err := rows.Scan(&w.ID, &w.Word, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan banned word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// UpsertBannedWord adds a blocklist entry, absorbing duplicates.
func (s *Store) UpsertBannedWord(ctx context.Context, word string) (*BannedWord, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO banned_words (word, created_at) VALUES ($1, $2)
		 ON CONFLICT (word) DO NOTHING`,
		word, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert banned word: %w", err)
	}

	var w BannedWord
	err = s.db.QueryRowContext(ctx,
		`SELECT id, word, created_at FROM banned_words WHERE word = $1`,
		word).Scan(&w.ID, &w.Word, &w.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &w, nil
}

// DeleteBannedWord removes a blocklist entry by id.
func (s *Store) DeleteBannedWord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM banned_words WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete banned word: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
