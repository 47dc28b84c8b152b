package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	profiles map[int64]*Profile
}

func (f *fakeDirectory) Profile(_ context.Context, userID int64) (*Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return p, nil
}

func newTestDirectory() *fakeDirectory {
	return &fakeDirectory{profiles: map[int64]*Profile{
		1: {ID: 1, Username: "root", DisplayName: "Root", Role: RoleSuperadmin},
		2: {ID: 2, Username: "bob", DisplayName: "Bob", Role: RoleUser},
	}}
}

func newManager(ttl time.Duration) *Manager {
	return NewManager("test-secret", ttl, "session", false, newTestDirectory())
}

func requestWithToken(m *Manager, payload SessionPayload) *http.Request {
	token, _ := m.Sign(payload)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: token})
	return r
}

func TestSignVerifyRoundTrip(t *testing.T) {
	m := newManager(time.Hour)
	target := int64(2)

	token, err := m.Sign(SessionPayload{
		UserID: 1, Username: "root", Role: RoleSuperadmin, ImpersonatingUserID: &target,
	})
	require.NoError(t, err)

	payload, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), payload.UserID)
	assert.Equal(t, RoleSuperadmin, payload.Role)
	require.NotNil(t, payload.ImpersonatingUserID)
	assert.Equal(t, int64(2), *payload.ImpersonatingUserID)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := newManager(time.Hour)
	other := NewManager("other-secret", time.Hour, "session", false, nil)

	token, err := other.Sign(SessionPayload{UserID: 1, Username: "root", Role: RoleSuperadmin})
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := newManager(-time.Minute)

	token, err := m.Sign(SessionPayload{UserID: 2, Username: "bob", Role: RoleUser})
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestReadFailsClosed(t *testing.T) {
	m := newManager(time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, m.Read(r), "no cookie")

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: "garbage"})
	assert.Nil(t, m.Read(r), "malformed token")
}

func TestIssueSetsHardenedCookie(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "session", true, newTestDirectory())
	w := httptest.NewRecorder()

	require.NoError(t, m.Issue(w, SessionPayload{UserID: 2, Username: "bob", Role: RoleUser}))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "session", c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestSetImpersonationRequiresSuperadmin(t *testing.T) {
	m := newManager(time.Hour)

	w := httptest.NewRecorder()
	r := requestWithToken(m, SessionPayload{UserID: 2, Username: "bob", Role: RoleUser})
	assert.ErrorIs(t, m.SetImpersonation(w, r, 1), ErrNotSuperadmin)
	assert.Empty(t, w.Result().Cookies(), "cookie must be left untouched")

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.ErrorIs(t, m.SetImpersonation(w, r, 1), ErrNoSession)
}

func TestImpersonationKeepsRealIdentity(t *testing.T) {
	m := newManager(time.Hour)

	w := httptest.NewRecorder()
	r := requestWithToken(m, SessionPayload{UserID: 1, Username: "root", Role: RoleSuperadmin})
	require.NoError(t, m.SetImpersonation(w, r, 2))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	payload, err := m.Verify(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, int64(1), payload.UserID, "real identity survives")
	require.NotNil(t, payload.ImpersonatingUserID)
	assert.Equal(t, int64(2), *payload.ImpersonatingUserID)
	assert.Equal(t, int64(2), payload.EffectiveUserID())
}

func TestEffectiveUserWhileImpersonating(t *testing.T) {
	m := newManager(time.Hour)
	target := int64(2)

	r := requestWithToken(m, SessionPayload{
		UserID: 1, Username: "root", Role: RoleSuperadmin, ImpersonatingUserID: &target,
	})
	user, err := m.EffectiveUser(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.ID)
	assert.True(t, user.IsImpersonating)
	require.NotNil(t, user.RealUser)
	assert.Equal(t, int64(1), user.RealUser.ID)
	assert.Equal(t, RoleSuperadmin, user.RealUser.Role)
}

func TestEffectiveUserVanishedTargetFallsBack(t *testing.T) {
	m := newManager(time.Hour)
	gone := int64(99)

	r := requestWithToken(m, SessionPayload{
		UserID: 1, Username: "root", Role: RoleSuperadmin, ImpersonatingUserID: &gone,
	})
	user, err := m.EffectiveUser(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID, "falls back to the real identity")
	assert.False(t, user.IsImpersonating)
	assert.Nil(t, user.RealUser)
}

func TestEffectiveUserPlainSession(t *testing.T) {
	m := newManager(time.Hour)

	r := requestWithToken(m, SessionPayload{UserID: 2, Username: "bob", Role: RoleUser})
	user, err := m.EffectiveUser(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.ID)
	assert.False(t, user.IsImpersonating)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = m.EffectiveUser(context.Background(), r)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestImpersonationClaimIgnoredForRegularRole(t *testing.T) {
	// A forged token claiming impersonation with a user role must not
	// change the effective identity.
	target := int64(1)
	p := SessionPayload{UserID: 2, Username: "bob", Role: RoleUser, ImpersonatingUserID: &target}
	assert.Equal(t, int64(2), p.EffectiveUserID())
	assert.False(t, p.IsImpersonating())
}

func TestClearExpiresCookie(t *testing.T) {
	m := newManager(time.Hour)
	w := httptest.NewRecorder()
	m.Clear(w)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}
