package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, "postgres", nil), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "password_hash", "display_name", "role", "telegram_id",
		"is_active", "is_banned", "banned_reason", "bot_enabled", "created_at", "updated_at",
	})
}

func TestUserByUsername(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE LOWER\(username\) = LOWER\(\$1\)`).
		WithArgs("Alice").
		WillReturnRows(userRows().AddRow(
			int64(1), "alice", "$2a$12$hash", "Alice", "user", nil,
			true, false, nil, true, now, now,
		))

	u, err := s.UserByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserByIDNotFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(userRows())

	_, err := s.UserByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetUserBanPausesAssignments(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	reason := "spam"
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET is_banned = \$1, banned_reason = \$2`).
		WithArgs(true, "spam", sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE user_channels SET paused = TRUE WHERE user_id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, s.SetUserBan(ctx, 7, true, &reason))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetUserBanUnbanLeavesAssignments(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET is_banned = \$1, banned_reason = \$2`).
		WithArgs(false, nil, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SetUserBan(ctx, 7, false, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserNotFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteUser(ctx, 99), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAssignmentAbsorbsDuplicate(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO user_channels`).
		WithArgs(int64(1), int64(-100123), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id, user_id, channel_id, paused, filter_mode, created_at`).
		WithArgs(int64(1), int64(-100123)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "channel_id", "paused", "filter_mode", "created_at"}).
			AddRow(int64(5), int64(1), int64(-100123), false, "all", now))

	uc, err := s.UpsertAssignment(ctx, 1, -100123)
	require.NoError(t, err)
	assert.Equal(t, int64(5), uc.ID)
	assert.False(t, uc.Paused)
	assert.Equal(t, "all", uc.FilterMode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasAssignment(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT 1 FROM user_channels`).
		WithArgs(int64(1), int64(-100123)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := s.HasAssignment(ctx, 1, -100123)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`SELECT 1 FROM user_channels`).
		WithArgs(int64(1), int64(-100999)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err = s.HasAssignment(ctx, 1, -100999)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogsPaging(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bot_logs WHERE level = \$1`).
		WithArgs("error").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(120)))
	mock.ExpectQuery(`SELECT id, level, message, details, created_at FROM bot_logs`).
		WithArgs("error", 50, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "level", "message", "details", "created_at"}).
			AddRow(int64(10), "error", "forward failed", nil, now))

	page, err := s.Logs(ctx, 2, 50, "error")
	require.NoError(t, err)
	assert.Equal(t, int64(120), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Logs, 1)
	assert.Equal(t, "forward failed", page.Logs[0].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeLogs(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM bot_logs WHERE created_at < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 37))

	n, err := s.PurgeLogs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(37), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateCache(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE bot_status SET cache_version = cache_version \+ 1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.InvalidateCache(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateCacheError(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE bot_status`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	assert.Error(t, s.InvalidateCache(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserClearsTelegramID(t *testing.T) {
	st, mock := newTestStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE users SET updated_at = \$1, telegram_id = \$2 WHERE id = \$3 RETURNING`).
		WithArgs(sqlmock.AnyArg(), nil, int64(2)).
		WillReturnRows(userRows().AddRow(
			int64(2), "bob", "$2a$12$hash", "Bob", "user", nil,
			true, false, nil, true, now, now,
		))

	u, err := st.UpdateUser(context.Background(), 2, UpdateUserParams{ClearTGID: true})
	require.NoError(t, err)
	assert.Nil(t, u.TelegramID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeLogsRowsAffectedError(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM bot_logs WHERE created_at < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not report rows")))

	_, err := st.PurgeLogs(context.Background(), 30)
	assert.Error(t, err)
}

func TestSetChannelPauseFansOut(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT 1 FROM channels WHERE channel_id = \$1`).
		WithArgs(int64(-100123)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(`UPDATE user_channels SET paused = \$1 WHERE channel_id = \$2`).
		WithArgs(true, int64(-100123)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, st.SetChannelPause(context.Background(), -100123, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetChannelPauseUnknownChannel(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT 1 FROM channels WHERE channel_id = \$1`).
		WithArgs(int64(-1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := st.SetChannelPause(context.Background(), -1, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertKeyword(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO keywords`).
		WithArgs("breaking", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT id, keyword, created_at FROM keywords WHERE keyword = \$1`).
		WithArgs("breaking").
		WillReturnRows(sqlmock.NewRows([]string{"id", "keyword", "created_at"}).
			AddRow(int64(3), "breaking", now))

	k, err := s.UpsertKeyword(ctx, "breaking")
	require.NoError(t, err)
	assert.Equal(t, "breaking", k.Keyword)
	assert.NoError(t, mock.ExpectationsWereMet())
}
