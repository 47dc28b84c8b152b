package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSession indicates the request carries no valid session
	ErrNoSession = errors.New("no session")
	// ErrNotSuperadmin indicates an impersonation attempt from a regular session
	ErrNotSuperadmin = errors.New("session is not superadmin")
	// ErrUserNotFound indicates the session references a missing account
	ErrUserNotFound = errors.New("user not found")
)

// Directory resolves user profiles for effective-user lookups
type Directory interface {
	Profile(ctx context.Context, userID int64) (*Profile, error)
}

// sessionClaims is the JWT claim set for a panel session
type sessionClaims struct {
	UserID              int64  `json:"uid"`
	Username            string `json:"username"`
	Role                Role   `json:"role"`
	ImpersonatingUserID *int64 `json:"imp,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues, validates, and refreshes signed session cookies.
// Session state lives entirely in the token: "mutating" a session means
// signing a replacement token, never editing server-side state.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	directory  Directory
}

// NewManager creates a session manager
func NewManager(secret string, ttl time.Duration, cookieName string, secure bool, directory Directory) *Manager {
	return &Manager{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: cookieName,
		secure:     secure,
		directory:  directory,
	}
}

// Sign serializes a payload into a signed token with a fresh expiry
func (m *Manager) Sign(payload SessionPayload) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID:              payload.UserID,
		Username:            payload.Username,
		Role:                payload.Role,
		ImpersonatingUserID: payload.ImpersonatingUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   payload.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its payload.
// Any cryptographic or expiry failure is an error; callers treat all of
// them identically to a missing session.
func (m *Manager) Verify(tokenStr string) (*SessionPayload, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return &SessionPayload{
		UserID:              claims.UserID,
		Username:            claims.Username,
		Role:                claims.Role,
		ImpersonatingUserID: claims.ImpersonatingUserID,
	}, nil
}

// Issue signs a payload and sets it as the session cookie
func (m *Manager) Issue(w http.ResponseWriter, payload SessionPayload) error {
	signed, err := m.Sign(payload)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
	return nil
}

// Read resolves the session from the request cookie.
// Returns nil on missing, malformed, tampered, or expired tokens — the
// distinction never matters to callers (fail closed).
func (m *Manager) Read(r *http.Request) *SessionPayload {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	payload, err := m.Verify(cookie.Value)
	if err != nil {
		return nil
	}
	return payload
}

// HasCookie reports whether a session cookie is present at all, valid or not
func (m *Manager) HasCookie(r *http.Request) bool {
	cookie, err := r.Cookie(m.cookieName)
	return err == nil && cookie.Value != ""
}

// Clear removes the session cookie
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// SetImpersonation re-issues the session with an impersonation target.
// The real identity is preserved so the transition can be reversed.
// Non-superadmin sessions get ErrNotSuperadmin and their cookie untouched.
func (m *Manager) SetImpersonation(w http.ResponseWriter, r *http.Request, targetUserID int64) error {
	session := m.Read(r)
	if session == nil {
		return ErrNoSession
	}
	if session.Role != RoleSuperadmin {
		return ErrNotSuperadmin
	}

	session.ImpersonatingUserID = &targetUserID
	return m.Issue(w, *session)
}

// ClearImpersonation re-issues the session without an impersonation target
func (m *Manager) ClearImpersonation(w http.ResponseWriter, r *http.Request) error {
	session := m.Read(r)
	if session == nil {
		return ErrNoSession
	}

	session.ImpersonatingUserID = nil
	return m.Issue(w, *session)
}

// EffectiveUser resolves the acting identity for the request: the
// impersonation target's profile when impersonating, else the session
// owner's own profile. Returns ErrNoSession when unauthenticated.
func (m *Manager) EffectiveUser(ctx context.Context, r *http.Request) (*EffectiveUser, error) {
	session := m.Read(r)
	if session == nil {
		return nil, ErrNoSession
	}

	if session.IsImpersonating() {
		target, err := m.directory.Profile(ctx, *session.ImpersonatingUserID)
		if err == nil && target != nil {
			return &EffectiveUser{
				Profile:         *target,
				IsImpersonating: true,
				RealUser: &RealUser{
					ID:       session.UserID,
					Username: session.Username,
					Role:     session.Role,
				},
			}, nil
		}
		// A vanished target falls through to the real identity rather
		// than locking the superadmin out of their session.
	}

	own, err := m.directory.Profile(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if own == nil {
		return nil, ErrUserNotFound
	}
	return &EffectiveUser{Profile: *own, IsImpersonating: false}, nil
}
