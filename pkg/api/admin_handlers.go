package api

import (
	"net/http"

	"github.com/arasverel/tgpanel/pkg/audit"
	"github.com/arasverel/tgpanel/pkg/httputil"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warning": true,
	"error":   true,
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	page, err := httputil.ParseQueryInt(r, "page", 1)
	if err != nil || page < 1 {
		httputil.WriteBadRequest(w, "invalid page")
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil || limit < 1 {
		httputil.WriteBadRequest(w, "invalid limit")
		return
	}
	level := httputil.ParseQueryString(r, "level", "")
	if level == "warn" {
		level = "warning"
	}
	if level != "" && !validLogLevels[level] {
		httputil.WriteBadRequest(w, "invalid level")
		return
	}

	logs, err := s.store.Logs(r.Context(), page, limit, level)
	if err != nil {
		s.logger.WithError(err).Error("failed to list logs")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, logs)
}

func (s *Server) handlePurgeLogs(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSuperadmin(w, r)
	if !ok {
		return
	}

	days, err := httputil.ParseQueryInt(r, "days", 30)
	if err != nil || days < 1 {
		httputil.WriteBadRequest(w, "invalid days")
		return
	}

	deleted, err := s.store.PurgeLogs(r.Context(), days)
	if err != nil {
		s.logger.WithError(err).Error("failed to purge logs")
		httputil.WriteInternalError(w)
		return
	}

	s.audit.Record(r.Context(), audit.EventTypeAdminLogsPurge, "logs purged", map[string]any{
		"userId":  session.UserID,
		"days":    days,
		"deleted": deleted,
	})
	httputil.WriteSuccess(w, map[string]int64{"deleted": deleted})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	stats, err := s.store.SystemStats(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to aggregate admin stats")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, stats)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	stats, err := s.store.UserStats(r.Context(), session.EffectiveUserID())
	if err != nil {
		s.logger.WithError(err).Error("failed to aggregate user stats")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, stats)
}

func (s *Server) handleBotStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}

	status, err := s.store.BotStatus(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load bot status")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, status)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}
