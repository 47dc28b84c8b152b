package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arasverel/tgpanel/pkg/auth"
)

const userColumns = `id, username, password_hash, display_name, role, telegram_id,
	is_active, is_banned, banned_reason, bot_enabled, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Role,
		&u.TelegramID, &u.IsActive, &u.IsBanned, &u.BannedReason, &u.BotEnabled,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Users returns all accounts, newest first.
func (s *Store) Users(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UserByID returns a single account or ErrNotFound.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UserByUsername looks an account up case-insensitively.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
	return scanUser(row)
}

// CreateUserParams holds the fields accepted when creating an account.
type CreateUserParams struct {
	Username     string
	PasswordHash string
	DisplayName  string
	Role         string
	TelegramID   *int64
}

// CreateUser inserts a new account and returns it.
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, display_name, role, telegram_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING `+userColumns,
		p.Username, p.PasswordHash, p.DisplayName, p.Role, p.TelegramID, now)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// UpdateUserParams applies a partial update; nil fields are untouched.
type UpdateUserParams struct {
	Username     *string
	PasswordHash *string
	DisplayName  *string
	Role         *string
	TelegramID   *int64
	ClearTGID    bool
	IsActive     *bool
	BotEnabled   *bool
}

// UpdateUser patches an account in place and returns the updated row.
func (s *Store) UpdateUser(ctx context.Context, id int64, p UpdateUserParams) (*User, error) {
	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}
	n := 2

	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, v)
		n++
	}
	if p.Username != nil {
		add("username", *p.Username)
	}
	if p.PasswordHash != nil {
		add("password_hash", *p.PasswordHash)
	}
	if p.DisplayName != nil {
		add("display_name", *p.DisplayName)
	}
	if p.Role != nil {
		add("role", *p.Role)
	}
	if p.TelegramID != nil {
		add("telegram_id", *p.TelegramID)
	} else if p.ClearTGID {
		add("telegram_id", nil)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	if p.BotEnabled != nil {
		add("bot_enabled", *p.BotEnabled)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		joinSets(sets), n, userColumns)
	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}

// DeleteUser removes an account. Assignments and links cascade.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserBan flips the ban flag. Banning also pauses every channel
// assignment the user holds so distribution stops immediately; unbanning
// leaves assignments paused until the user resumes them.
func (s *Store) SetUserBan(ctx context.Context, id int64, banned bool, reason *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ban transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET is_banned = $1, banned_reason = $2, updated_at = $3 WHERE id = $4`,
		banned, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update ban flag: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}

	if banned {
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_channels SET paused = TRUE WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to pause assignments: %w", err)
		}
	}

	return tx.Commit()
}

// Profile returns the session-facing view of an account. It satisfies the
// auth.Directory interface used to resolve impersonation targets.
func (s *Store) Profile(ctx context.Context, userID int64) (*auth.Profile, error) {
	var p auth.Profile
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, role, telegram_id FROM users WHERE id = $1`,
		userID).Scan(&p.ID, &p.Username, &p.DisplayName, &role, &p.TelegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	p.Role = auth.Role(role)
	return &p, nil
}
