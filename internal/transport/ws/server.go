package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type RoomSvc interface {
	GetRoom(ctx context.Context, code string) (*domain.Room, error)
	CheckAndDeleteTemporaryRoom(ctx context.Context, code string, callerID domain.UserID) error
}

type ChatSvc interface {
	Send(ctx context.Context, roomCode, username, text string) (*domain.Message, error)
	Subscribe(ctx context.Context, roomCode string) (*service.Subscription, error)
}

type PresenceSvc interface {
	SetPresent(ctx context.Context, roomCode, username string, present bool) error
	Touch(ctx context.Context, roomCode, username string) error
}

type TokenVerifier interface {
	UserIDFromAccessToken(token string) (domain.UserID, error)
}

type Server struct {
	upgrader    websocket.Upgrader
	roomSvc     RoomSvc
	chatSvc     ChatSvc
	presenceSvc PresenceSvc
	verifier    TokenVerifier

	pingEvery time.Duration
}

func NewServer(room RoomSvc, chat ChatSvc, presence PresenceSvc, verifier TokenVerifier) *Server {
	return &Server{
		roomSvc:     room,
		chatSvc:     chat,
		presenceSvc: presence,
		verifier:    verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws/rooms/{code}?access_token=...&username=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accessToken := strings.TrimSpace(q.Get("access_token"))
	username := strings.TrimSpace(q.Get("username"))
	if accessToken == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	userID, err := s.verifier.UserIDFromAccessToken(accessToken)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}
	if username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	room, err := s.roomSvc.GetRoom(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		slog.Error("ws get room failed", "room", code, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !room.HasParticipant(username) {
		http.Error(w, "not a participant", http.StatusForbidden)
		return
	}

	sub, err := s.chatSvc.Subscribe(r.Context(), code)
	if err != nil {
		slog.Error("ws subscribe failed", "room", code, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Cancel()
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, code, username, userID)

	if err := s.presenceSvc.SetPresent(r.Context(), code, username, true); err != nil {
		slog.Warn("ws presence set failed", "room", code, "user", username, "err", err)
	}

	go s.writeLoop(r.Context(), c, sub)
	s.readLoop(r.Context(), c)

	// разрыв соединения: отписка, presence=false, временная комната
	// создателя удаляется
	sub.Cancel()
	if err := s.presenceSvc.SetPresent(context.WithoutCancel(r.Context()), code, username, false); err != nil {
		slog.Debug("ws presence clear failed", "room", code, "user", username, "err", err)
	}
	if err := s.roomSvc.CheckAndDeleteTemporaryRoom(context.WithoutCancel(r.Context()), code, userID); err != nil {
		slog.Debug("ws temp room cleanup failed", "room", code, "err", err)
	}

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", code, "user", username, "err", err)
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		_ = s.presenceSvc.Touch(ctx, c.roomCode, c.username)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeChat:
			var p ChatPayload
			if decode(msg.Payload, &p) != nil {
				continue
			}
			saved, err := s.chatSvc.Send(ctx, c.roomCode, c.username, p.Message)
			if err != nil {
				// валидационные ошибки отдаем отправителю, не рвем соединение
				_ = c.Send(Message{Type: TypeChatAck, Payload: ErrorPayload{Error: err.Error()}})
				if !isClientError(err) {
					slog.Warn("ws chat send failed", "room", c.roomCode, "user", c.username, "err", err)
				}
				continue
			}
			// снапшот придет всем через подписку; ACK — только отправителю
			_ = c.Send(Message{Type: TypeChatAck, Payload: ChatAckPayload{MsgID: saved.ID}})

		case TypePresence:
			var p PresencePayload
			if decode(msg.Payload, &p) == nil {
				_ = s.presenceSvc.SetPresent(ctx, c.roomCode, c.username, p.Present)
			}

		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn, sub *service.Subscription) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-sub.Updates():
			if !ok {
				// комната удалена — вежливо закрываем соединение
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "room deleted"),
					time.Now().Add(time.Second))
				_ = c.Close()
				return
			}
			if err := c.Send(stateMessage(c.roomCode, snapshot)); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func stateMessage(roomCode string, snapshot []domain.Message) Message {
	items := make([]MessageStateItem, 0, len(snapshot))
	for _, m := range snapshot {
		items = append(items, MessageStateItem{
			ID:       m.ID,
			Username: m.Username,
			Text:     m.Text,
			TSUnix:   m.CreatedAt.Unix(),
		})
	}

	return Message{
		Type:    TypeState,
		Payload: StatePayload{RoomCode: roomCode, Messages: items},
	}
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrEmptyMessage) ||
		errors.Is(err, domain.ErrMessageTooLong) ||
		errors.Is(err, domain.ErrRoomClosed) ||
		errors.Is(err, domain.ErrRoomNotFound)
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

type wsConn struct {
	conn      *websocket.Conn
	roomCode  string
	username  string
	userID    domain.UserID
	sendMu    chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
}

func newWsConn(c *websocket.Conn, roomCode, username string, userID domain.UserID) *wsConn {
	return &wsConn{
		conn:     c,
		roomCode: roomCode,
		username: username,
		userID:   userID,
		sendMu:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

// Close безопасен при конкурентных вызовах: writeLoop закрывает соединение
// при удалении комнаты параллельно с deferred Close из readLoop.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })

	return c.conn.Close()
}
