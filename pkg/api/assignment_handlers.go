package api

import (
	"errors"
	"net/http"

	"github.com/arasverel/tgpanel/pkg/audit"
	"github.com/arasverel/tgpanel/pkg/auth"
	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/store"
)

// resolveTargetUser picks the user an assignment operation applies to:
// the explicit userId when given, else the session's effective identity.
// A non-superadmin naming anyone but themselves is rejected.
func (s *Server) resolveTargetUser(w http.ResponseWriter, r *http.Request, session *auth.SessionPayload, requested int64) (int64, bool) {
	target := requested
	if target == 0 {
		target = session.EffectiveUserID()
	}
	if !s.guard.CanActForUser(session, target) {
		s.audit.Record(r.Context(), audit.EventTypeAccessDenied, "cross-user assignment denied", map[string]any{
			"userId":       session.EffectiveUserID(),
			"targetUserId": target,
			"path":         r.URL.Path,
		})
		httputil.WriteForbidden(w, "you cannot manage another user's channels")
		return 0, false
	}
	return target, true
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	requested, err := httputil.ParseQueryInt64(r, "userId", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid userId")
		return
	}
	target, ok := s.resolveTargetUser(w, r, session, requested)
	if !ok {
		return
	}

	assignments, err := s.store.AssignmentsForUser(r.Context(), target)
	if err != nil {
		s.logger.WithError(err).Error("failed to list assignments")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"channels": assignments})
}

type createAssignmentRequest struct {
	UserID    int64  `json:"userId"`
	ChannelID string `json:"channelId"`
}

// handleCreateAssignment grants a channel to a user. Superadmin only:
// assignments define ownership, so letting a user create their own would
// let them claim any channel.
func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSuperadmin(w, r)
	if !ok {
		return
	}

	var req createAssignmentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	channelID, err := httputil.ParseChannelID(req.ChannelID)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid channel id")
		return
	}
	target := req.UserID
	if target == 0 {
		target = session.EffectiveUserID()
	}

	if err := s.store.CreateChannelIfMissing(r.Context(), channelID, nil); err != nil {
		s.logger.WithError(err).Error("failed to ensure channel")
		httputil.WriteInternalError(w)
		return
	}
	assignment, err := s.store.UpsertAssignment(r.Context(), target, channelID)
	if err != nil {
		s.logger.WithError(err).Error("failed to create assignment")
		httputil.WriteInternalError(w)
		return
	}

	s.refresher.RefreshAsync(channelID)
	s.guard.Forget(target, channelID)
	s.invalidateBotCache(r.Context())
	httputil.WriteCreated(w, assignment)
}

type updateAssignmentRequest struct {
	UserID     int64   `json:"userId"`
	ChannelID  string  `json:"channelId"`
	Paused     *bool   `json:"paused"`
	FilterMode *string `json:"filterMode"`
}

func (s *Server) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	var req updateAssignmentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	channelID, err := httputil.ParseChannelID(req.ChannelID)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid channel id")
		return
	}
	if req.Paused == nil && req.FilterMode == nil {
		httputil.WriteBadRequest(w, "nothing to update")
		return
	}
	if req.FilterMode != nil && *req.FilterMode != "all" && *req.FilterMode != "filtered" {
		httputil.WriteBadRequest(w, "filterMode must be 'all' or 'filtered'")
		return
	}
	target, ok := s.resolveTargetUser(w, r, session, req.UserID)
	if !ok {
		return
	}

	if req.Paused != nil {
		if err := s.store.SetAssignmentPause(r.Context(), target, channelID, *req.Paused); err != nil {
			s.writeAssignmentError(w, err)
			return
		}
	}
	if req.FilterMode != nil {
		if err := s.store.SetAssignmentFilterMode(r.Context(), target, channelID, *req.FilterMode); err != nil {
			s.writeAssignmentError(w, err)
			return
		}
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

func (s *Server) writeAssignmentError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httputil.WriteNotFoundError(w, "assignment not found")
		return
	}
	s.logger.WithError(err).Error("failed to update assignment")
	httputil.WriteInternalError(w)
}

// handleDeleteAssignment revokes a channel from a user. Superadmin only,
// mirroring create.
func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSuperadmin(w, r)
	if !ok {
		return
	}

	channelID, err := httputil.ParseChannelID(httputil.ParseQueryString(r, "channelId", ""))
	if err != nil {
		httputil.WriteBadRequest(w, "invalid channel id")
		return
	}
	target, err := httputil.ParseQueryInt64(r, "userId", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid userId")
		return
	}
	if target == 0 {
		target = session.EffectiveUserID()
	}

	if err := s.store.DeleteAssignment(r.Context(), target, channelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "assignment not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete assignment")
		httputil.WriteInternalError(w)
		return
	}

	s.guard.Forget(target, channelID)
	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}
