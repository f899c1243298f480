package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository"
	"github.com/wishp-chat/chatroom-service/internal/repository/postgres"
)

// memStore — in-memory реализация room/chat/presence репозиториев
// с той же семантикой ошибок, что и postgres-слой.
type memStore struct {
	mu        sync.Mutex
	rooms     map[string]*domain.Room
	messages  map[string][]domain.Message
	presence  map[string]map[string]domain.Presence
	nextMsgID int64
	clock     time.Time
}

func newMemStore() *memStore {
	return &memStore{
		rooms:    make(map[string]*domain.Room),
		messages: make(map[string][]domain.Message),
		presence: make(map[string]map[string]domain.Presence),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick — каждое сохранение получает монотонно растущее «серверное» время.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// --- RoomRepository ---

func (s *memStore) Create(_ context.Context, room *domain.Room) error {
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

func (s *memStore) Get(_ context.Context, code string) (*domain.Room, error) {
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

func (s *memStore) AppendParticipant(_ context.Context, code, username string) error {
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

func (s *memStore) Close(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Open = false

	return nil
}

func (s *memStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, code)
	delete(s.presence, code)
	delete(s.rooms, code)

	return nil
}

// --- ChatRepository ---

func (s *memStore) SaveIfOpen(_ context.Context, roomCode, username, text string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if !room.Open {
		return nil, domain.ErrRoomClosed
	}

	s.nextMsgID++
	m := domain.Message{
		ID:        s.nextMsgID,
		RoomCode:  roomCode,
		Username:  username,
		Text:      text,
		CreatedAt: s.tick(),
	}
	s.messages[roomCode] = append(s.messages[roomCode], m)

	return &m, nil
}

func (s *memStore) ListAll(_ context.Context, roomCode string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]domain.Message(nil), s.messages[roomCode]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (s *memStore) History(ctx context.Context, roomCode, after string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := postgres.DecodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	all, _ := s.ListAll(ctx, roomCode)
	// новые первыми
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}

	var out []domain.Message
	for _, m := range all {
		if cur != nil {
			if !m.CreatedAt.Before(cur.CreatedAt) && !(m.CreatedAt.Equal(cur.CreatedAt) && m.ID < cur.ID) {
				continue
			}
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		next, _ = postgres.EncodeCursor(postgres.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return out, next, nil
}

// --- PresenceRepository ---

func (s *memStore) Upsert(_ context.Context, roomCode, username string, present bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.presence[roomCode]
	if !ok {
		room = make(map[string]domain.Presence)
		s.presence[roomCode] = room
	}
	room[username] = domain.Presence{
		RoomCode: roomCode,
		Username: username,
		Present:  present,
		LastSeen: now,
	}

	return nil
}

func (s *memStore) ListByRoom(_ context.Context, roomCode string) ([]domain.Presence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Presence, 0, len(s.presence[roomCode]))
	for _, p := range s.presence[roomCode] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })

	return out, nil
}
