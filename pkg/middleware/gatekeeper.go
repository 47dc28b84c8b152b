package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/arasverel/tgpanel/pkg/auth"
	"github.com/arasverel/tgpanel/pkg/observability"
)

// Gatekeeper routes traffic at the edge: public paths pass, API requests
// carry their own auth checks, and page requests without a valid session
// are redirected to the right login screen. The superadmin area redirects
// regular users back to their dashboard.
type Gatekeeper struct {
	sessions *auth.Manager
	logger   *observability.Logger
}

// NewGatekeeper creates a Gatekeeper over the session manager
func NewGatekeeper(sessions *auth.Manager, logger *observability.Logger) *Gatekeeper {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Gatekeeper{sessions: sessions, logger: logger}
}

func isPublicPath(path string) bool {
	switch path {
	case "/login", "/admin/login", "/api/auth/login":
		return true
	}
	return false
}

func isStaticAsset(path string) bool {
	if strings.HasPrefix(path, "/static/") || path == "/favicon.ico" {
		return true
	}
	// Anything with a file extension is a static asset, not a page.
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return strings.ContainsRune(path[i:], '.')
	}
	return false
}

func loginPathFor(path string) string {
	if strings.HasPrefix(path, "/admin") {
		return "/admin/login"
	}
	return "/login"
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := loginPathFor(r.URL.Path) + "?from=" + url.QueryEscape(r.URL.Path)
	http.Redirect(w, r, target, http.StatusFound)
}

// Handler wraps next with the edge routing rules
func (g *Gatekeeper) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if isPublicPath(path) || isStaticAsset(path) {
			next.ServeHTTP(w, r)
			return
		}

		// API handlers enforce auth themselves and must answer with status
		// codes, never redirects.
		if strings.HasPrefix(path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		if path == "/healthz" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		session := g.sessions.Read(r)
		if session == nil {
			// A cookie that did not verify is stale or forged; drop it so
			// the browser stops resending it.
			if g.sessions.HasCookie(r) {
				g.sessions.Clear(w)
			}
			redirectToLogin(w, r)
			return
		}

		if path == "/" {
			if session.Role == auth.RoleSuperadmin {
				http.Redirect(w, r, "/admin", http.StatusFound)
			} else {
				http.Redirect(w, r, "/dashboard", http.StatusFound)
			}
			return
		}

		// The real role gates the superadmin area; impersonation does not
		// demote the session at the edge.
		if strings.HasPrefix(path, "/admin") && session.Role != auth.RoleSuperadmin {
			g.logger.WithFields(map[string]any{
				"userId": session.UserID,
				"path":   path,
			}).Warn("non-superadmin redirected from admin area")
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}
