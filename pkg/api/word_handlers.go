package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/store"
)

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}

	keywords, err := s.store.Keywords(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list keywords")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"keywords": keywords})
}

type addWordRequest struct {
	Keyword string `json:"keyword"`
	Word    string `json:"word"`
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	var req addWordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	keyword := strings.TrimSpace(req.Keyword)
	if !httputil.RequireNonEmpty(w, keyword, "keyword") {
		return
	}

	k, err := s.store.UpsertKeyword(r.Context(), keyword)
	if err != nil {
		s.logger.WithError(err).Error("failed to add keyword")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteCreated(w, k)
}

func (s *Server) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteKeyword(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "keyword not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete keyword")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

func (s *Server) handleListBannedWords(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}

	words, err := s.store.BannedWords(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list banned words")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"bannedWords": words})
}

func (s *Server) handleAddBannedWord(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	var req addWordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	word := strings.TrimSpace(req.Word)
	if !httputil.RequireNonEmpty(w, word, "word") {
		return
	}

	bw, err := s.store.UpsertBannedWord(r.Context(), word)
	if err != nil {
		s.logger.WithError(err).Error("failed to add banned word")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteCreated(w, bw)
}

func (s *Server) handleDeleteBannedWord(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteBannedWord(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "banned word not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete banned word")
		httputil.WriteInternalError(w)
		return
	}

	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}
