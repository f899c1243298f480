package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository"
	"github.com/wishp-chat/chatroom-service/internal/security"
	"github.com/wishp-chat/chatroom-service/internal/service"
	"github.com/wishp-chat/chatroom-service/internal/transport/ws"
)

// fakeStore — in-memory репозитории для сквозных тестов через роутер.
type fakeStore struct {
	mu        sync.Mutex
	rooms     map[string]*domain.Room
	messages  map[string][]domain.Message
	presence  map[string]map[string]domain.Presence
	users     map[domain.UserID]*domain.User
	sessions  map[domain.SessionID]*domain.Session
	nextMsg   int64
	nextUser  domain.UserID
	nextSess  domain.SessionID
	clock     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:    make(map[string]*domain.Room),
		messages: make(map[string][]domain.Message),
		presence: make(map[string]map[string]domain.Presence),
		users:    make(map[domain.UserID]*domain.User),
		sessions: make(map[domain.SessionID]*domain.Session),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *fakeStore) Create(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Code]; ok {
		return repository.ErrAlreadyExists
	}
	cp := *room
	cp.Participants = append([]string(nil), room.Participants...)
	s.rooms[room.Code] = &cp
	return nil
}

func (s *fakeStore) Get(_ context.Context, code string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *room
	cp.Participants = append([]string(nil), room.Participants...)
	return &cp, nil
}

func (s *fakeStore) AppendParticipant(_ context.Context, code, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if !room.Open {
		return domain.ErrRoomClosed
	}
	if room.HasParticipant(username) {
		return domain.ErrDuplicateUsername
	}
	room.Participants = append(room.Participants, username)
	return nil
}

func (s *fakeStore) Close(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Open = false
	return nil
}

func (s *fakeStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, code)
	delete(s.presence, code)
	delete(s.rooms, code)
	return nil
}

func (s *fakeStore) SaveIfOpen(_ context.Context, roomCode, username, text string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if !room.Open {
		return nil, domain.ErrRoomClosed
	}
	s.nextMsg++
	m := domain.Message{ID: s.nextMsg, RoomCode: roomCode, Username: username, Text: text, CreatedAt: s.tick()}
	s.messages[roomCode] = append(s.messages[roomCode], m)
	return &m, nil
}

func (s *fakeStore) ListAll(_ context.Context, roomCode string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.Message(nil), s.messages[roomCode]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) History(ctx context.Context, roomCode, after string, limit int) ([]domain.Message, string, error) {
	all, _ := s.ListAll(ctx, roomCode)
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, "", nil
}

func (s *fakeStore) Upsert(_ context.Context, roomCode, username string, present bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.presence[roomCode]
	if !ok {
		room = make(map[string]domain.Presence)
		s.presence[roomCode] = room
	}
	room[username] = domain.Presence{RoomCode: roomCode, Username: username, Present: present, LastSeen: now}
	return nil
}

func (s *fakeStore) ListByRoom(_ context.Context, roomCode string) ([]domain.Presence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Presence, 0, len(s.presence[roomCode]))
	for _, p := range s.presence[roomCode] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// --- UserRepository ---

func (s *fakeStore) CreateUser(_ context.Context, u *domain.User) (domain.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	cp := *u
	cp.ID = s.nextUser
	s.users[cp.ID] = &cp
	return cp.ID, nil
}

func (s *fakeStore) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	return err == nil, nil
}

func (s *fakeStore) UpdatePasswordHash(_ context.Context, id domain.UserID, newHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = newHash
	u.UpdatedAt = now
	return nil
}

// --- SessionRepository ---

func (s *fakeStore) CreateSession(_ context.Context, sess *domain.Session) (domain.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSess++
	cp := *sess
	cp.ID = s.nextSess
	s.sessions[cp.ID] = &cp
	return cp.ID, nil
}

func (s *fakeStore) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.TokenHash == tokenHash {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) DeleteByID(_ context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *fakeStore) DeleteByUser(_ context.Context, userID domain.UserID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.IsExpired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// userAdapter / sessionAdapter разводят одноимённые методы fakeStore
// по двум интерфейсам репозиториев.
type userAdapter struct{ *fakeStore }

func (a userAdapter) Create(ctx context.Context, u *domain.User) (domain.UserID, error) {
	return a.CreateUser(ctx, u)
}

type sessionAdapter struct{ *fakeStore }

func (a sessionAdapter) Create(ctx context.Context, s *domain.Session) (domain.SessionID, error) {
	return a.CreateSession(ctx, s)
}

type testEnv struct {
	srv   *httptest.Server
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	casts := service.NewBroadcaster()
	roomSvc := service.NewRoomService(store, casts)
	chatSvc := service.NewChatService(store, casts)
	presenceSvc := service.NewPresenceService(store)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer := security.NewJWTSigner(key, &key.PublicKey, "chatroom-service", "chatroom-app", 15*time.Minute, 30*time.Second)

	authSvc := service.NewAuthService(userAdapter{store}, sessionAdapter{store}, signer, 24*time.Hour,
		security.BcryptConfig{Cost: bcrypt.MinCost, MinLength: 6}, nil)

	wsServer := ws.NewServer(roomSvc, chatSvc, presenceSvc, authSvc)
	h := NewHandler(roomSvc, chatSvc, presenceSvc, authSvc)
	ah := NewAuthHandler(authSvc)
	router := NewRouter(h, ah, authSvc, presenceSvc, wsServer, 30*time.Second)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	env := &testEnv{srv: srv}

	// регистрация пользователя для защищённых маршрутов
	var auth AuthResponse
	env.doJSON(t, "POST", "/auth/signup", "", SignUpRequest{
		Email: "alice@example.com", Password: "secret1", FirstName: "Alice",
	}, http.StatusCreated, &auth)
	env.token = auth.AccessToken

	return env
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any, wantStatus int, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func (e *testEnv) createRoom(t *testing.T, username string, temporary bool) RoomItem {
	t.Helper()

	var room RoomItem
	e.doJSON(t, "POST", "/rooms", e.token, CreateRoomRequest{Username: username, Temporary: temporary}, http.StatusCreated, &room)
	return room
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRooms_RequireAuth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	env.doJSON(t, "POST", "/rooms", "", CreateRoomRequest{Username: "x"}, http.StatusUnauthorized, nil)
	env.doJSON(t, "POST", "/rooms", "bogus-token", CreateRoomRequest{Username: "x"}, http.StatusUnauthorized, nil)
}

func TestCreateAndGetRoom(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	room := env.createRoom(t, "alice", false)
	require.Len(t, room.Code, domain.RoomCodeLength)
	require.True(t, room.Open)
	require.Equal(t, []string{"alice"}, room.Participants)

	var got RoomItem
	env.doJSON(t, "GET", "/rooms/"+room.Code, env.token, nil, http.StatusOK, &got)
	require.Equal(t, room.Code, got.Code)

	env.doJSON(t, "GET", "/rooms/NOPE42", env.token, nil, http.StatusNotFound, nil)
}

func TestJoinRoom_Conflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	room := env.createRoom(t, "alice", false)

	var joined RoomItem
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/join", env.token, JoinRoomRequest{Username: "bob"}, http.StatusOK, &joined)
	require.Equal(t, []string{"alice", "bob"}, joined.Participants)

	// дубликат имени
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/join", env.token, JoinRoomRequest{Username: "bob"}, http.StatusConflict, nil)

	// после закрытия join отклоняется
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/close", env.token, nil, http.StatusOK, nil)
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/join", env.token, JoinRoomRequest{Username: "carol"}, http.StatusConflict, nil)
}

func TestCloseRoom_OwnerOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	room := env.createRoom(t, "alice", false)

	// второй пользователь — не владелец
	var other AuthResponse
	env.doJSON(t, "POST", "/auth/signup", "", SignUpRequest{
		Email: "mallory@example.com", Password: "secret1",
	}, http.StatusCreated, &other)

	env.doJSON(t, "POST", "/rooms/"+room.Code+"/close", other.AccessToken, nil, http.StatusForbidden, nil)
	env.doJSON(t, "DELETE", "/rooms/"+room.Code, other.AccessToken, nil, http.StatusForbidden, nil)

	env.doJSON(t, "POST", "/rooms/"+room.Code+"/close", env.token, nil, http.StatusOK, nil)
	// идемпотентно
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/close", env.token, nil, http.StatusOK, nil)
}

func TestMessages_SendAndHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	room := env.createRoom(t, "alice", false)

	var msg MessageItem
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/messages", env.token, SendMessageRequest{Username: "alice", Text: "hello"}, http.StatusCreated, &msg)
	require.Equal(t, "hello", msg.Text)
	require.NotZero(t, msg.ID)

	env.doJSON(t, "POST", "/rooms/"+room.Code+"/messages", env.token, SendMessageRequest{Username: "alice", Text: "  "}, http.StatusBadRequest, nil)

	var hist MessagesResponse
	env.doJSON(t, "GET", "/rooms/"+room.Code+"/messages", env.token, nil, http.StatusOK, &hist)
	require.Len(t, hist.Items, 1)

	// закрытая комната отклоняет отправку
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/close", env.token, nil, http.StatusOK, nil)
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/messages", env.token, SendMessageRequest{Username: "alice", Text: "late"}, http.StatusConflict, nil)
}

func TestDeleteRoom_Cascades(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	room := env.createRoom(t, "alice", false)

	env.doJSON(t, "POST", "/rooms/"+room.Code+"/messages", env.token, SendMessageRequest{Username: "alice", Text: "bye"}, http.StatusCreated, nil)
	env.doJSON(t, "DELETE", "/rooms/"+room.Code, env.token, nil, http.StatusOK, nil)

	env.doJSON(t, "GET", "/rooms/"+room.Code, env.token, nil, http.StatusNotFound, nil)
}

func TestPresence_PutAndGet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	room := env.createRoom(t, "alice", false)

	env.doJSON(t, "PUT", "/rooms/"+room.Code+"/presence", env.token, SetPresenceRequest{Username: "alice", Present: true}, http.StatusOK, nil)

	var pres PresenceResponse
	env.doJSON(t, "GET", "/rooms/"+room.Code+"/presence", env.token, nil, http.StatusOK, &pres)
	require.Len(t, pres.Items, 1)
	require.True(t, pres.Items[0].Present)

	env.doJSON(t, "PUT", "/rooms/"+room.Code+"/presence", env.token, SetPresenceRequest{Username: " "}, http.StatusBadRequest, nil)
}

func TestLeaveRoom_DeletesTemporary(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	room := env.createRoom(t, "alice", true)

	env.doJSON(t, "POST", "/rooms/"+room.Code+"/leave", env.token, LeaveRoomRequest{Username: "alice"}, http.StatusOK, nil)
	env.doJSON(t, "GET", "/rooms/"+room.Code, env.token, nil, http.StatusNotFound, nil)

	// повторный leave — no-op
	env.doJSON(t, "POST", "/rooms/"+room.Code+"/leave", env.token, LeaveRoomRequest{Username: "alice"}, http.StatusOK, nil)
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	var auth AuthResponse
	env.doJSON(t, "POST", "/auth/signup", "", SignUpRequest{
		Email: "bob@example.com", Password: "secret1", FirstName: "Bob",
	}, http.StatusCreated, &auth)

	// дубликат email
	env.doJSON(t, "POST", "/auth/signup", "", SignUpRequest{
		Email: "bob@example.com", Password: "secret1",
	}, http.StatusConflict, nil)

	var login AuthResponse
	env.doJSON(t, "POST", "/auth/login", "", LoginRequest{Email: "bob@example.com", Password: "secret1"}, http.StatusOK, &login)

	env.doJSON(t, "POST", "/auth/login", "", LoginRequest{Email: "bob@example.com", Password: "wrong"}, http.StatusUnauthorized, nil)

	var me UserItem
	env.doJSON(t, "GET", "/auth/me", login.AccessToken, nil, http.StatusOK, &me)
	require.Equal(t, "bob@example.com", me.Email)

	var refreshed RefreshResponse
	env.doJSON(t, "POST", "/auth/refresh", "", RefreshRequest{RefreshToken: login.RefreshToken}, http.StatusOK, &refreshed)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	env.doJSON(t, "POST", "/auth/logout", login.AccessToken, nil, http.StatusOK, nil)
	env.doJSON(t, "POST", "/auth/refresh", "", RefreshRequest{RefreshToken: refreshed.RefreshToken}, http.StatusUnauthorized, nil)
}
