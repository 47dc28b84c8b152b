package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/store"
)

func (s *Server) handleListAdminLinks(w http.ResponseWriter, r *http.Request) {
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

	links, err := s.store.AdminLinksForUser(r.Context(), target)
	if err != nil {
		s.logger.WithError(err).Error("failed to list admin links")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"links": links})
}

type createAdminLinkRequest struct {
	UserID    int64  `json:"userId"`
	ChannelID string `json:"channelId"`
	LinkCode  string `json:"linkCode"`
	LinkURL   string `json:"linkUrl"`
}

func (s *Server) handleCreateAdminLink(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	var req createAdminLinkRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	channelID, err := httputil.ParseChannelID(req.ChannelID)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid channel id")
		return
	}
	target, ok := s.resolveTargetUser(w, r, session, req.UserID)
	if !ok {
		return
	}
	if !s.requireChannelAccess(w, r, session, channelID) {
		return
	}

	code := strings.TrimSpace(req.LinkCode)
	if code == "" {
		code = uuid.NewString()[:8]
	}
	url := strings.TrimSpace(req.LinkURL)
	if url == "" {
		url = fmt.Sprintf("https://t.me/+%s", code)
	}

	link, err := s.store.UpsertAdminLink(r.Context(), target, channelID, code, url)
	if err != nil {
		s.logger.WithError(err).Error("failed to create admin link")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteCreated(w, link)
}

func (s *Server) handleDeleteAdminLink(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	linkID, ok := httputil.ParsePathInt64OrError(w, r, "id")
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

	if err := s.store.DeleteAdminLink(r.Context(), target, linkID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "link not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete admin link")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}
