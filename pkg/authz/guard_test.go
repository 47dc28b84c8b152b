package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arasverel/tgpanel/pkg/auth"
)

type fakeChecker struct {
	assignments map[string]bool
	err         error
	calls       int
}

func (f *fakeChecker) HasAssignment(_ context.Context, userID, channelID int64) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.assignments[cacheKey(userID, channelID)], nil
}

func userSession(id int64) *auth.SessionPayload {
	return &auth.SessionPayload{UserID: id, Username: "user", Role: auth.RoleUser}
}

func adminSession(id int64) *auth.SessionPayload {
	return &auth.SessionPayload{UserID: id, Username: "admin", Role: auth.RoleSuperadmin}
}

func impersonating(adminID, targetID int64) *auth.SessionPayload {
	s := adminSession(adminID)
	s.ImpersonatingUserID = &targetID
	return s
}

func TestSuperadminBypassesOwnership(t *testing.T) {
	ctx := context.Background()
	checker := &fakeChecker{}
	g := NewGuard(checker)

	ok, err := g.CanAccessChannel(ctx, adminSession(1), -100500)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, checker.calls, "superadmin should not hit the database")
}

func TestUserNeedsAssignment(t *testing.T) {
	ctx := context.Background()
	checker := &fakeChecker{assignments: map[string]bool{cacheKey(2, -100500): true}}
	g := NewGuard(checker)

	ok, err := g.CanAccessChannel(ctx, userSession(2), -100500)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.CanAccessChannel(ctx, userSession(2), -100999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImpersonationUsesTargetOwnership(t *testing.T) {
	ctx := context.Background()
	checker := &fakeChecker{assignments: map[string]bool{cacheKey(7, -100500): true}}
	g := NewGuard(checker)

	// Impersonating user 7: target's assignment applies, not superadmin bypass.
	ok, err := g.CanAccessChannel(ctx, impersonating(1, 7), -100500)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, checker.calls)

	ok, err = g.CanAccessChannel(ctx, impersonating(1, 7), -100999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOwnershipAnswerIsCached(t *testing.T) {
	ctx := context.Background()
	checker := &fakeChecker{assignments: map[string]bool{cacheKey(2, -100500): true}}
	g := NewGuard(checker)

	for i := 0; i < 5; i++ {
		ok, err := g.CanAccessChannel(ctx, userSession(2), -100500)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, checker.calls)
}

func TestForgetInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	checker := &fakeChecker{assignments: map[string]bool{cacheKey(2, -100500): true}}
	g := NewGuard(checker)

	_, err := g.CanAccessChannel(ctx, userSession(2), -100500)
	require.NoError(t, err)

	delete(checker.assignments, cacheKey(2, -100500))
	g.Forget(2, -100500)

	ok, err := g.CanAccessChannel(ctx, userSession(2), -100500)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, checker.calls)
}

func TestCheckerErrorPropagates(t *testing.T) {
	ctx := context.Background()
	checker := &fakeChecker{err: errors.New("db down")}
	g := NewGuard(checker)

	_, err := g.CanAccessChannel(ctx, userSession(2), -100500)
	assert.Error(t, err)
}

func TestCanActForUser(t *testing.T) {
	g := NewGuard(&fakeChecker{})

	assert.True(t, g.CanActForUser(adminSession(1), 99))
	assert.True(t, g.CanActForUser(userSession(2), 2))
	assert.False(t, g.CanActForUser(userSession(2), 3))

	// Impersonation narrows a superadmin to the target's scope.
	assert.True(t, g.CanActForUser(impersonating(1, 7), 7))
	assert.False(t, g.CanActForUser(impersonating(1, 7), 8))
	assert.False(t, g.CanActForUser(nil, 1))
}
