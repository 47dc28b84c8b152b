package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/store"
)

func (s *Server) handleListListeningChannels(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	channels, err := s.store.ListeningChannels(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list listening channels")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"channels": channels})
}

type addListeningChannelRequest struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
}

func (s *Server) handleAddListeningChannel(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	var req addListeningChannelRequest
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
	lc, err := s.store.UpsertListeningChannel(r.Context(), channelID, name)
	if err != nil {
		s.logger.WithError(err).Error("failed to add listening channel")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteCreated(w, lc)
}

func (s *Server) handleDeleteListeningChannel(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}
	channelID, ok := parseChannelIDPath(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteListeningChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "listening channel not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete listening channel")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}
