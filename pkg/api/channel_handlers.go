package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/store"
)

func parseChannelIDPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := httputil.ParseChannelID(mux.Vars(r)["channelId"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid channel id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	channels, err := s.store.ChannelOverviews(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list channels")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"channels": channels})
}

type updateChannelRequest struct {
	Paused *bool `json:"paused"`
}

// handleUpdateChannel pauses or resumes every assignment on a channel at
// once. Individual assignments are toggled through /api/user-channels.
func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}
	channelID, ok := parseChannelIDPath(w, r)
	if !ok {
		return
	}

	var req updateChannelRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Paused == nil {
		httputil.WriteBadRequest(w, "nothing to update")
		return
	}

	if err := s.store.SetChannelPause(r.Context(), channelID, *req.Paused); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "channel not found")
			return
		}
		s.logger.WithError(err).Error("failed to update channel pause")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

type createChannelRequest struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	var req createChannelRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	channelID, err := httputil.ParseChannelID(strings.TrimSpace(req.ChannelID))
	if err != nil {
		httputil.WriteBadRequest(w, "invalid channel id")
		return
	}

	var name *string
	if req.ChannelName != "" {
		name = &req.ChannelName
	}
	if err := s.store.CreateChannelIfMissing(r.Context(), channelID, name); err != nil {
		s.logger.WithError(err).Error("failed to create channel")
		httputil.WriteInternalError(w)
		return
	}

	// Pull the real title and member count in the background; the row is
	// usable immediately.
	s.refresher.RefreshAsync(channelID)
	s.invalidateBotCache(r.Context())

	channel, err := s.store.ChannelByID(r.Context(), channelID)
	if err != nil {
		s.logger.WithError(err).Error("failed to load created channel")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteCreated(w, channel)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}
	channelID, ok := parseChannelIDPath(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "channel not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete channel")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

func (s *Server) handleChannelAdmins(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}
	channelID, ok := parseChannelIDPath(w, r)
	if !ok {
		return
	}

	admins, err := s.store.ChannelAdmins(r.Context(), channelID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list channel admins")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"admins": admins})
}

func (s *Server) handleListChannelFilters(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	channelID, ok := parseChannelIDPath(w, r)
	if !ok {
		return
	}
	if !s.requireChannelAccess(w, r, session, channelID) {
		return
	}

	filters, err := s.store.ChannelFilters(r.Context(), channelID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list channel filters")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"filters": filters})
}

type addFilterRequest struct {
	Keyword string `json:"keyword"`
}

func (s *Server) handleAddChannelFilter(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	channelID, ok := parseChannelIDPath(w, r)
	if !ok {
		return
	}
	if !s.requireChannelAccess(w, r, session, channelID) {
		return
	}

	var req addFilterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if !httputil.RequireNonEmpty(w, req.Keyword, "keyword") {
		return
	}

	filter, err := s.store.UpsertChannelFilter(r.Context(), channelID, req.Keyword)
	if err != nil {
		s.logger.WithError(err).Error("failed to add channel filter")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteCreated(w, filter)
}

func (s *Server) handleDeleteChannelFilter(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	channelID, ok := parseChannelIDPath(w, r)
	if !ok {
		return
	}
	if !s.requireChannelAccess(w, r, session, channelID) {
		return
	}
	filterID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteChannelFilter(r.Context(), channelID, filterID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "filter not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete channel filter")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}
