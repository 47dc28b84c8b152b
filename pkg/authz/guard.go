package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/arasverel/tgpanel/pkg/auth"
)

// ownershipTTL bounds how stale a cached ownership answer can be. Revoking
// an assignment takes effect within this window even without an explicit
// Forget call.
const ownershipTTL = 30 * time.Second

const ownershipCacheSize = 4096

// AssignmentChecker answers whether a user holds an assignment on a
// channel. The store implements it.
type AssignmentChecker interface {
	HasAssignment(ctx context.Context, userID, channelID int64) (bool, error)
}

// Guard enforces the panel's ownership rules: superadmins see everything,
// regular users only the channels assigned to them. Positive and negative
// answers are cached briefly to keep hot dashboards off the database.
type Guard struct {
	checker AssignmentChecker
	cache   *expirable.LRU[string, bool]
}

// NewGuard creates a Guard over the given assignment source
func NewGuard(checker AssignmentChecker) *Guard {
	return &Guard{
		checker: checker,
		cache:   expirable.NewLRU[string, bool](ownershipCacheSize, nil, ownershipTTL),
	}
}

func cacheKey(userID, channelID int64) string {
	return fmt.Sprintf("%d:%d", userID, channelID)
}

// IsSuperadmin reports whether the session's REAL identity is a superadmin.
// Impersonation never grants or removes superadmin powers.
func (g *Guard) IsSuperadmin(session *auth.SessionPayload) bool {
	return session != nil && session.Role == auth.RoleSuperadmin
}

// EffectiveUserID returns the identity ownership checks apply to: the
// impersonation target when impersonating, else the session owner.
func (g *Guard) EffectiveUserID(session *auth.SessionPayload) int64 {
	if session == nil {
		return 0
	}
	return session.EffectiveUserID()
}

// CanAccessChannel reports whether the session may touch a channel's
// resources. Superadmins acting as themselves always may; otherwise the
// effective user must hold an assignment.
func (g *Guard) CanAccessChannel(ctx context.Context, session *auth.SessionPayload, channelID int64) (bool, error) {
	if session == nil {
		return false, nil
	}
	if g.IsSuperadmin(session) && !session.IsImpersonating() {
		return true, nil
	}

	uid := session.EffectiveUserID()
	key := cacheKey(uid, channelID)
	if ok, found := g.cache.Get(key); found {
		return ok, nil
	}

	ok, err := g.checker.HasAssignment(ctx, uid, channelID)
	if err != nil {
		return false, err
	}
	g.cache.Add(key, ok)
	return ok, nil
}

// CanActForUser reports whether the session may operate on resources scoped
// to the given user id.
func (g *Guard) CanActForUser(session *auth.SessionPayload, userID int64) bool {
	if session == nil {
		return false
	}
	if g.IsSuperadmin(session) && !session.IsImpersonating() {
		return true
	}
	return session.EffectiveUserID() == userID
}

// Forget drops the cached ownership answer for one user/channel pair.
// Called after assignments change so revocation is immediate.
func (g *Guard) Forget(userID, channelID int64) {
	g.cache.Remove(cacheKey(userID, channelID))
}
