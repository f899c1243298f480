package service

import (
	"sync"

	"github.com/wishp-chat/chatroom-service/internal/domain"
)

// Subscription — live-поток снапшотов сообщений одной комнаты.
// Каждое событие — полный список по возрастанию времени.
type Subscription struct {
	b        *Broadcaster
	roomCode string

	mu   sync.Mutex // закрывает гонку push против Cancel
	done bool
	ch   chan []domain.Message
}

func (s *Subscription) Updates() <-chan []domain.Message { return s.ch }

// Cancel — явная и идемпотентная отмена подписки.
// Канал закрывается; повторный вызов — no-op.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	close(s.ch)
	s.mu.Unlock()

	s.b.remove(s)
}

// push — latest-wins: если подписчик не успевает, старый снапшот вытесняется.
// После Cancel (в т.ч. через удаление комнаты) — молчаливый no-op:
// комната может быть удалена, пока подписчик читает начальный снапшот.
func (s *Subscription) push(snapshot []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}

	select {
	case s.ch <- snapshot:
	default:
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- snapshot:
		default:
		}
	}
}

// Broadcaster — реестр подписок: roomCode -> set of subscriptions.
type Broadcaster struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscription]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{rooms: make(map[string]map[*Subscription]struct{})}
}

func (b *Broadcaster) Subscribe(roomCode string) *Subscription {
	sub := &Subscription{
		b:        b,
		roomCode: roomCode,
		ch:       make(chan []domain.Message, 1),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rs, ok := b.rooms[roomCode]
	if !ok {
		rs = make(map[*Subscription]struct{})
		b.rooms[roomCode] = rs
	}
	rs[sub] = struct{}{}

	return sub
}

func (b *Broadcaster) Publish(roomCode string, snapshot []domain.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if rs, ok := b.rooms[roomCode]; ok {
		for sub := range rs {
			sub.push(snapshot) // best-effort
		}
	}
}

// CloseRoom завершает все подписки комнаты — вызывается при удалении комнаты.
func (b *Broadcaster) CloseRoom(roomCode string) {
	b.mu.Lock()
	rs := b.rooms[roomCode]
	delete(b.rooms, roomCode)
	b.mu.Unlock()

	for sub := range rs {
		sub.Cancel()
	}
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rs, ok := b.rooms[sub.roomCode]; ok {
		delete(rs, sub)
		if len(rs) == 0 {
			delete(b.rooms, sub.roomCode)
		}
	}
}
