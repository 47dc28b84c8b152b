package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arasverel/tgpanel/pkg/audit"
	"github.com/arasverel/tgpanel/pkg/auth"
	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *auth.Profile `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := httputil.ClientIP(r)

	res := s.limiter.Allow(ctx, ip)
	if !res.OK {
		if s.metrics != nil {
			s.metrics.RateLimitedTotal.Inc()
		}
		s.audit.Record(ctx, audit.EventTypeAuthRateLimited, "login rate limited", map[string]any{"ip": ip})
		retryAfter := int(time.Until(res.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		httputil.WriteTooManyRequests(w, "too many login attempts, try again later", retryAfter)
		return
	}

	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "username and password are required")
		return
	}

	user, err := s.store.UserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.recordLoginFailure(r, req.Username, "unknown user")
			httputil.WriteUnauthorized(w, "invalid username or password")
			return
		}
		s.logger.WithError(err).Error("login lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	// Account state is checked before the password: a banned or disabled
	// account answers 403 no matter what credentials were sent.
	if user.IsBanned {
		reason := "account is banned"
		if user.BannedReason != nil && *user.BannedReason != "" {
			reason = fmt.Sprintf("account is banned: %s", *user.BannedReason)
		}
		s.recordLoginFailure(r, req.Username, "banned")
		httputil.WriteForbidden(w, reason)
		return
	}
	if !user.IsActive {
		s.recordLoginFailure(r, req.Username, "inactive")
		httputil.WriteForbidden(w, "account is disabled")
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.recordLoginFailure(r, req.Username, "bad password")
		httputil.WriteUnauthorized(w, "invalid username or password")
		return
	}

	s.limiter.Reset(ctx, ip)

	payload := auth.SessionPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     auth.Role(user.Role),
	}
	if err := s.sessions.Issue(w, payload); err != nil {
		s.logger.WithError(err).Error("failed to issue session")
		httputil.WriteInternalError(w)
		return
	}

	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	}
	s.audit.Record(ctx, audit.EventTypeAuthLogin, "user logged in", map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		"ip":       ip,
	})

	httputil.WriteSuccess(w, loginResponse{User: &auth.Profile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        auth.Role(user.Role),
		TelegramID:  user.TelegramID,
	}})
}

func (s *Server) recordLoginFailure(r *http.Request, username, reason string) {
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
	}
	s.audit.Record(r.Context(), audit.EventTypeAuthLoginFailed, "login failed", map[string]any{
		"username": username,
		"reason":   reason,
		"ip":       httputil.ClientIP(r),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if session := s.sessions.Read(r); session != nil {
		s.audit.Record(r.Context(), audit.EventTypeAuthLogout, "user logged out", map[string]any{
			"userId": session.UserID,
		})
	}
	s.sessions.Clear(w)
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.sessions.EffectiveUser(r.Context(), r)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		if errors.Is(err, auth.ErrUserNotFound) {
			// The account behind the session is gone; the cookie is dead.
			s.sessions.Clear(w)
			httputil.WriteUnauthorized(w, "account no longer exists")
			return
		}
		s.logger.WithError(err).Error("failed to resolve session user")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, user)
}

type impersonateRequest struct {
	UserID int64 `json:"userId"`
}

func (s *Server) handleImpersonate(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	var req impersonateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		httputil.WriteBadRequest(w, "userId is required")
		return
	}

	if session.Role != auth.RoleSuperadmin {
		if s.metrics != nil {
			s.metrics.ImpersonationTotal.WithLabelValues("denied").Inc()
		}
		s.audit.Record(r.Context(), audit.EventTypeImpersonationDenied,
			"impersonation attempt by non-superadmin", map[string]any{
				"userId":       session.UserID,
				"targetUserId": req.UserID,
			})
		httputil.WriteForbidden(w, "superadmin access required")
		return
	}

	target, err := s.store.UserByID(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("impersonation target lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	if err := s.sessions.SetImpersonation(w, r, target.ID); err != nil {
		s.logger.WithError(err).Error("failed to start impersonation")
		httputil.WriteInternalError(w)
		return
	}

	if s.metrics != nil {
		s.metrics.ImpersonationTotal.WithLabelValues("start").Inc()
	}
	s.audit.Record(r.Context(), audit.EventTypeImpersonationStart, "impersonation started", map[string]any{
		"userId":       session.UserID,
		"targetUserId": target.ID,
	})

	httputil.WriteSuccess(w, map[string]any{
		"impersonating": auth.Profile{
			ID:          target.ID,
			Username:    target.Username,
			DisplayName: target.DisplayName,
			Role:        auth.Role(target.Role),
			TelegramID:  target.TelegramID,
		},
	})
}

func (s *Server) handleStopImpersonation(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if err := s.sessions.ClearImpersonation(w, r); err != nil {
		s.logger.WithError(err).Error("failed to stop impersonation")
		httputil.WriteInternalError(w)
		return
	}

	if s.metrics != nil {
		s.metrics.ImpersonationTotal.WithLabelValues("stop").Inc()
	}
	s.audit.Record(r.Context(), audit.EventTypeImpersonationStop, "impersonation stopped", map[string]any{
		"userId": session.UserID,
	})
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}
