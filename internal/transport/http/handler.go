package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository/postgres"
	"github.com/wishp-chat/chatroom-service/internal/service"
	httpmw "github.com/wishp-chat/chatroom-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc     *service.RoomService
	chatSvc     *service.ChatService
	presenceSvc *service.PresenceService
	authSvc     *service.AuthService
}

func NewHandler(room *service.RoomService, chat *service.ChatService, presence *service.PresenceService, auth *service.AuthService) *Handler {
	return &Handler{
		roomSvc:     room,
		chatSvc:     chat,
		presenceSvc: presence,
		authSvc:     auth,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toRoomItem(room *domain.Room) RoomItem {
	return RoomItem{
		Code:         room.Code,
		CreatorID:    int64(room.CreatorID),
		CreatorEmail: room.CreatorEmail,
		Open:         room.Open,
		Temporary:    room.Temporary,
		Participants: room.Participants,
		CreatedAt:    room.CreatedAt,
	}
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	userID := httpmw.UserIDFromCtx(r.Context())
	creator, err := h.authSvc.Me(r.Context(), userID)
	if err != nil {
		slog.Error("handler.CreateRoom.Me:", slog.Any("err", err))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unknown user"})
		return
	}

	code, err := h.roomSvc.CreateRoom(r.Context(), creator, req.Username, req.Temporary)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyUsername) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "username is required"})
			return
		}
		slog.Error("handler.CreateRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.roomSvc.GetRoom(r.Context(), code)
	if err != nil {
		slog.Error("handler.CreateRoom.GetRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, toRoomItem(room))
}

// GET /rooms/{code}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	room, err := h.roomSvc.GetRoom(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.GetRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// POST /rooms/{code}/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	err := h.roomSvc.JoinRoom(r.Context(), code, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyUsername):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "username is required"})
		case errors.Is(err, domain.ErrRoomNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		case errors.Is(err, domain.ErrRoomClosed):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "room closed"})
		case errors.Is(err, domain.ErrDuplicateUsername):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "username already taken"})
		default:
			slog.Error("handler.JoinRoom:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	room, err := h.roomSvc.GetRoom(r.Context(), code)
	if err != nil {
		slog.Error("handler.JoinRoom.GetRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// POST /rooms/{code}/close — только для создателя
func (h *Handler) CloseRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	userID := httpmw.UserIDFromCtx(r.Context())

	if !h.roomSvc.CheckRoomOwnership(r.Context(), code, userID) {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "not room owner"})
		return
	}

	if err := h.roomSvc.CloseRoom(r.Context(), code); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.CloseRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// DELETE /rooms/{code} — только для создателя
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	userID := httpmw.UserIDFromCtx(r.Context())

	if !h.roomSvc.CheckRoomOwnership(r.Context(), code, userID) {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "not room owner"})
		return
	}

	if err := h.roomSvc.DeleteRoom(r.Context(), code); err != nil {
		slog.Error("handler.DeleteRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /rooms/{code}/leave — уход из комнаты: presence=false,
// временная комната при уходе создателя удаляется.
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	userID := httpmw.UserIDFromCtx(r.Context())

	var req LeaveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if req.Username != "" {
		if err := h.presenceSvc.SetPresent(r.Context(), code, req.Username, false); err != nil {
			slog.Warn("handler.LeaveRoom.SetPresent:", slog.Any("err", err))
		}
	}

	if err := h.roomSvc.CheckAndDeleteTemporaryRoom(r.Context(), code, userID); err != nil {
		slog.Error("handler.LeaveRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// GET /rooms/{code}/messages?after=&limit=
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	after := r.URL.Query().Get("after")
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	items, next, err := h.chatSvc.History(r.Context(), code, after, limit)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.GetMessages:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := MessagesResponse{Items: make([]MessageItem, 0, len(items)), NextCursor: next}
	for _, m := range items {
		resp.Items = append(resp.Items, MessageItem{
			ID:        m.ID,
			RoomCode:  m.RoomCode,
			Username:  m.Username,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /rooms/{code}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.chatSvc.Send(r.Context(), code, req.Username, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message is empty"})
		case errors.Is(err, domain.ErrMessageTooLong):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message too long"})
		case errors.Is(err, domain.ErrRoomNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		case errors.Is(err, domain.ErrRoomClosed):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "room closed"})
		default:
			slog.Error("handler.SendMessage:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, MessageItem{
		ID:        msg.ID,
		RoomCode:  msg.RoomCode,
		Username:  msg.Username,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	})
}

// GET /rooms/{code}/presence
func (h *Handler) GetPresence(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	items, err := h.presenceSvc.ListPresence(r.Context(), code)
	if err != nil {
		slog.Error("handler.GetPresence:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := PresenceResponse{Items: make([]PresenceItem, 0, len(items))}
	for _, p := range items {
		resp.Items = append(resp.Items, PresenceItem{
			Username: p.Username,
			Present:  p.Present,
			LastSeen: p.LastSeen,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// PUT /rooms/{code}/presence
func (h *Handler) SetPresence(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req SetPresenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if err := h.presenceSvc.SetPresent(r.Context(), code, req.Username, req.Present); err != nil {
		if errors.Is(err, domain.ErrEmptyUsername) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "username is required"})
			return
		}
		slog.Error("handler.SetPresence:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
