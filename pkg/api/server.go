package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/arasverel/tgpanel/pkg/audit"
	"github.com/arasverel/tgpanel/pkg/auth"
	"github.com/arasverel/tgpanel/pkg/authz"
	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/middleware"
	"github.com/arasverel/tgpanel/pkg/observability"
	"github.com/arasverel/tgpanel/pkg/store"
	"github.com/arasverel/tgpanel/pkg/telegram"
)

// Server wires the HTTP API: authentication, the resource services, and the
// admin surface.
type Server struct {
	store     *store.Store
	sessions  *auth.Manager
	guard     *authz.Guard
	limiter   *middleware.LoginLimiter
	audit     *audit.Recorder
	refresher *telegram.Refresher
	metrics   *observability.Metrics
	logger    *observability.Logger
}

// NewServer creates a Server over its dependencies
func NewServer(
	st *store.Store,
	sessions *auth.Manager,
	guard *authz.Guard,
	limiter *middleware.LoginLimiter,
	recorder *audit.Recorder,
	refresher *telegram.Refresher,
	metrics *observability.Metrics,
	logger *observability.Logger,
) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Server{
		store:     st,
		sessions:  sessions,
		guard:     guard,
		limiter:   limiter,
		audit:     recorder,
		refresher: refresher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Routes builds the full router, including the edge middleware chain.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	// Auth
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/me", s.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/impersonate", s.handleImpersonate).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/impersonate", s.handleStopImpersonation).Methods(http.MethodDelete)

	// Users (superadmin)
	r.HandleFunc("/api/users", s.handleListUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/users", s.handleCreateUser).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id:[0-9]+}", s.handleGetUser).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id:[0-9]+}", s.handleUpdateUser).Methods(http.MethodPatch)
	r.HandleFunc("/api/users/{id:[0-9]+}", s.handleDeleteUser).Methods(http.MethodDelete)
	r.HandleFunc("/api/users/{id:[0-9]+}/ban", s.handleBanUser).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id:[0-9]+}/ban", s.handleUnbanUser).Methods(http.MethodDelete)

	// Channels
	r.HandleFunc("/api/channels", s.handleListChannels).Methods(http.MethodGet)
	r.HandleFunc("/api/channels", s.handleCreateChannel).Methods(http.MethodPost)
	r.HandleFunc("/api/channels/{channelId:-?[0-9]+}", s.handleUpdateChannel).Methods(http.MethodPatch)
	r.HandleFunc("/api/channels/{channelId:-?[0-9]+}", s.handleDeleteChannel).Methods(http.MethodDelete)
	r.HandleFunc("/api/channels/{channelId:-?[0-9]+}/admins", s.handleChannelAdmins).Methods(http.MethodGet)
	r.HandleFunc("/api/channels/{channelId:-?[0-9]+}/filters", s.handleListChannelFilters).Methods(http.MethodGet)
	r.HandleFunc("/api/channels/{channelId:-?[0-9]+}/filters", s.handleAddChannelFilter).Methods(http.MethodPost)
	r.HandleFunc("/api/channels/{channelId:-?[0-9]+}/filters/{id:[0-9]+}", s.handleDeleteChannelFilter).Methods(http.MethodDelete)

	// Channel assignments
	r.HandleFunc("/api/user-channels", s.handleListAssignments).Methods(http.MethodGet)
	r.HandleFunc("/api/user-channels", s.handleCreateAssignment).Methods(http.MethodPost)
	r.HandleFunc("/api/user-channels", s.handleUpdateAssignment).Methods(http.MethodPatch)
	r.HandleFunc("/api/user-channels", s.handleDeleteAssignment).Methods(http.MethodDelete)

	// Global keyword and blocklist configuration (superadmin)
	r.HandleFunc("/api/keywords", s.handleListKeywords).Methods(http.MethodGet)
	r.HandleFunc("/api/keywords", s.handleAddKeyword).Methods(http.MethodPost)
	r.HandleFunc("/api/keywords/{id:[0-9]+}", s.handleDeleteKeyword).Methods(http.MethodDelete)
	r.HandleFunc("/api/banned-words", s.handleListBannedWords).Methods(http.MethodGet)
	r.HandleFunc("/api/banned-words", s.handleAddBannedWord).Methods(http.MethodPost)
	r.HandleFunc("/api/banned-words/{id:[0-9]+}", s.handleDeleteBannedWord).Methods(http.MethodDelete)

	// Listening channels (superadmin)
	r.HandleFunc("/api/listening-channels", s.handleListListeningChannels).Methods(http.MethodGet)
	r.HandleFunc("/api/listening-channels", s.handleAddListeningChannel).Methods(http.MethodPost)
	r.HandleFunc("/api/listening-channels/{channelId:-?[0-9]+}", s.handleDeleteListeningChannel).Methods(http.MethodDelete)

	// Invite links
	r.HandleFunc("/api/admin-links", s.handleListAdminLinks).Methods(http.MethodGet)
	r.HandleFunc("/api/admin-links", s.handleCreateAdminLink).Methods(http.MethodPost)
	r.HandleFunc("/api/admin-links/{id:[0-9]+}", s.handleDeleteAdminLink).Methods(http.MethodDelete)

	// Stats and operations
	r.HandleFunc("/api/stats", s.handleUserStats).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/stats", s.handleAdminStats).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/logs", s.handleListLogs).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/logs", s.handlePurgeLogs).Methods(http.MethodDelete)
	r.HandleFunc("/api/bot/status", s.handleBotStatus).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	gatekeeper := middleware.NewGatekeeper(s.sessions, s.logger)
	requestLog := middleware.NewRequestLogMiddleware(s.logger, s.metrics)

	// Logging lives on the router so the matched route template is visible
	// for metric paths; unmatched requests are logged via NotFoundHandler.
	r.Use(requestLog.Handler)
	r.NotFoundHandler = requestLog.Handler(http.NotFoundHandler())

	chain := httputil.Chain(
		httputil.RecoveryMiddleware,
		gatekeeper.Handler,
		httputil.MaxBytesMiddleware(1<<20),
	)
	return chain(r)
}

// requireSession resolves the session cookie or writes a 401.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (*auth.SessionPayload, bool) {
	session := s.sessions.Read(r)
	if session == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return nil, false
	}
	return session, true
}

// requireSuperadmin additionally checks the REAL role, so an impersonating
// superadmin keeps admin surfaces and a forged role claim does not help.
func (s *Server) requireSuperadmin(w http.ResponseWriter, r *http.Request) (*auth.SessionPayload, bool) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return nil, false
	}
	if !s.guard.IsSuperadmin(session) {
		s.audit.Record(r.Context(), audit.EventTypeAccessDenied, "superadmin endpoint denied", map[string]any{
			"userId": session.UserID,
			"path":   r.URL.Path,
		})
		httputil.WriteForbidden(w, "superadmin access required")
		return nil, false
	}
	return session, true
}

// requireChannelAccess enforces channel ownership for the effective user or
// writes a 403.
func (s *Server) requireChannelAccess(w http.ResponseWriter, r *http.Request, session *auth.SessionPayload, channelID int64) bool {
	ok, err := s.guard.CanAccessChannel(r.Context(), session, channelID)
	if err != nil {
		s.logger.WithError(err).Error("ownership check failed")
		httputil.WriteInternalError(w)
		return false
	}
	if !ok {
		s.audit.Record(r.Context(), audit.EventTypeAccessDenied, "channel access denied", map[string]any{
			"userId":    session.EffectiveUserID(),
			"channelId": channelID,
			"path":      r.URL.Path,
		})
		httputil.WriteForbidden(w, "you do not have access to this channel")
		return false
	}
	return true
}

// invalidateBotCache advances the marker the bot polls. Mutations that are
// invisible to the bot do not call this.
func (s *Server) invalidateBotCache(ctx context.Context) {
	if err := s.store.InvalidateCache(ctx); err != nil {
		s.logger.WithError(err).Error("failed to advance bot cache marker")
		return
	}
	if s.metrics != nil {
		s.metrics.CacheInvalidationsTotal.Inc()
	}
}
