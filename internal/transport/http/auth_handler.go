package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository"
	"github.com/wishp-chat/chatroom-service/internal/service"
	httpmw "github.com/wishp-chat/chatroom-service/internal/transport/http/middleware"
)

type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: auth}
}

func loginMeta(r *http.Request) *service.LoginMeta {
	if ua := r.UserAgent(); ua != "" {
		return &service.LoginMeta{UserAgent: &ua}
	}
	return nil
}

func toUserItem(u *domain.User) UserItem {
	return UserItem{
		ID:        int64(u.ID),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	res, err := h.authSvc.SignUp(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, loginMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "email already registered"})
		case errors.Is(err, domain.ErrInvalidEmail):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid email"})
		case errors.Is(err, domain.ErrPasswordTooShort):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "password too short"})
		default:
			slog.Error("handler.SignUp:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		User:         toUserItem(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int64(h.authSvc.AccessTTL().Seconds()),
	})
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	res, err := h.authSvc.Login(r.Context(), req.Email, req.Password, loginMeta(r))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		slog.Error("handler.Login:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		User:         toUserItem(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int64(h.authSvc.AccessTTL().Seconds()),
	})
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	res, err := h.authSvc.Refresh(r.Context(), req.RefreshToken, loginMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrSessionExpired):
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid refresh token"})
		default:
			slog.Error("handler.Refresh:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int64(h.authSvc.AccessTTL().Seconds()),
	})
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	u, err := h.authSvc.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unknown user"})
			return
		}
		slog.Error("handler.Me:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, toUserItem(u))
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	if err := h.authSvc.Logout(r.Context(), userID); err != nil {
		slog.Error("handler.Logout:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
