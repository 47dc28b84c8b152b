package auth

// Role represents the account privilege level
type Role string

const (
	// RoleUser is a regular panel account scoped to its own channels
	RoleUser Role = "user"
	// RoleSuperadmin has full access plus impersonation
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether the role is a known value
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSuperadmin
}

// SessionPayload is the identity encoded in the signed session token.
// ImpersonatingUserID is only ever set for superadmin sessions; the real
// identity fields are retained so impersonation can be reversed.
type SessionPayload struct {
	UserID              int64  `json:"userId"`
	Username            string `json:"username"`
	Role                Role   `json:"role"`
	ImpersonatingUserID *int64 `json:"impersonatingUserId,omitempty"`
}

// EffectiveUserID returns the identity whose data-ownership applies:
// the impersonation target if set, else the session owner.
func (p *SessionPayload) EffectiveUserID() int64 {
	if p.Role == RoleSuperadmin && p.ImpersonatingUserID != nil {
		return *p.ImpersonatingUserID
	}
	return p.UserID
}

// IsImpersonating reports whether this session is acting as another user
func (p *SessionPayload) IsImpersonating() bool {
	return p.Role == RoleSuperadmin && p.ImpersonatingUserID != nil
}

// Profile is the subset of a user account the session layer needs
type Profile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	TelegramID  *int64 `json:"telegramId,string,omitempty"`
}

// RealUser identifies the actual session owner while impersonating
type RealUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// EffectiveUser is the acting identity for the current request, annotated
// with impersonation state
type EffectiveUser struct {
	Profile
	IsImpersonating bool      `json:"isImpersonating"`
	RealUser        *RealUser `json:"realUser,omitempty"`
}
