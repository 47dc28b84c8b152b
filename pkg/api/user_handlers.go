package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/arasverel/tgpanel/pkg/audit"
	"github.com/arasverel/tgpanel/pkg/auth"
	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/store"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	users, err := s.store.Users(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list users")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"users": users})
}

type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	TelegramID  *int64 `json:"telegramId,string,omitempty"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}

	var req createUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "username and password are required")
		return
	}
	if req.Role == "" {
		req.Role = string(auth.RoleUser)
	}
	if !auth.Role(req.Role).Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	if _, err := s.store.UserByUsername(r.Context(), req.Username); err == nil {
		httputil.WriteConflict(w, "username already taken")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.WithError(err).Error("failed to check username")
		httputil.WriteInternalError(w)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.WithError(err).Error("failed to hash password")
		httputil.WriteInternalError(w)
		return
	}

	user, err := s.store.CreateUser(r.Context(), store.CreateUserParams{
		Username:     req.Username,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
		TelegramID:   req.TelegramID,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create user")
		httputil.WriteInternalError(w)
		return
	}

	s.audit.Record(r.Context(), audit.EventTypeAdminUserCreate, "user created", map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
	s.invalidateBotCache(r.Context())
	httputil.WriteCreated(w, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	user, err := s.store.UserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("failed to load user")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, user)
}

type updateUserRequest struct {
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	DisplayName *string `json:"displayName"`
	Role        *string `json:"role"`
	// Raw so an explicit null (detach the Telegram account) is
	// distinguishable from the field being absent.
	TelegramID json.RawMessage `json:"telegramId"`
	IsActive   *bool           `json:"isActive"`
	BotEnabled *bool           `json:"botEnabled"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSuperadmin(w, r); !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req updateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Role != nil && !auth.Role(*req.Role).Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	params := store.UpdateUserParams{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		IsActive:    req.IsActive,
		BotEnabled:  req.BotEnabled,
	}
	if len(req.TelegramID) > 0 {
		if string(req.TelegramID) == "null" {
			params.ClearTGID = true
		} else {
			var raw string
			if err := json.Unmarshal(req.TelegramID, &raw); err != nil {
				httputil.WriteBadRequest(w, "invalid telegramId")
				return
			}
			tgID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				httputil.WriteBadRequest(w, "invalid telegramId")
				return
			}
			params.TelegramID = &tgID
		}
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.WithError(err).Error("failed to hash password")
			httputil.WriteInternalError(w)
			return
		}
		params.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(r.Context(), id, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("failed to update user")
		httputil.WriteInternalError(w)
		return
	}

	s.audit.Record(r.Context(), audit.EventTypeAdminUserUpdate, "user updated", map[string]any{
		"userId": user.ID,
	})
	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSuperadmin(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	// Deleting your own account from an active session is always a mistake.
	if id == session.UserID {
		httputil.WriteBadRequest(w, "cannot delete your own account")
		return
	}

	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete user")
		httputil.WriteInternalError(w)
		return
	}

	s.audit.Record(r.Context(), audit.EventTypeAdminUserDelete, "user deleted", map[string]any{
		"userId":    id,
		"deletedBy": session.UserID,
	})
	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

type banRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSuperadmin(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if id == session.UserID {
		httputil.WriteBadRequest(w, "cannot ban your own account")
		return
	}

	var req banRequest
	if r.ContentLength > 0 && !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	var reason *string
	if req.Reason != "" {
		reason = &req.Reason
	}

	if err := s.store.SetUserBan(r.Context(), id, true, reason); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("failed to ban user")
		httputil.WriteInternalError(w)
		return
	}

	s.audit.Record(r.Context(), audit.EventTypeAdminUserBan, "user banned", map[string]any{
		"userId":   id,
		"bannedBy": session.UserID,
		"reason":   req.Reason,
	})
	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

func (s *Server) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSuperadmin(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.SetUserBan(r.Context(), id, false, nil); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		s.logger.WithError(err).Error("failed to unban user")
		httputil.WriteInternalError(w)
		return
	}

	s.audit.Record(r.Context(), audit.EventTypeAdminUserUnban, "user unbanned", map[string]any{
		"userId":     id,
		"unbannedBy": session.UserID,
	})
	s.invalidateBotCache(r.Context())
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}
