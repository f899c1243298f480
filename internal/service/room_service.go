package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository"
	"github.com/wishp-chat/chatroom-service/internal/roomcode"
)

// maxCreateAttempts — сколько раз перегенерировать код при коллизии.
// Вероятность одной коллизии при 36^6 кодов ничтожна, но запись без
// повторной проверки уникальности обязана её обрабатывать.
const maxCreateAttempts = 5

type RoomService struct {
	roomRepo repository.RoomRepository
	casts    *Broadcaster

	genCode func() string
	now     func() time.Time
}

func NewRoomService(roomRepo repository.RoomRepository, casts *Broadcaster) *RoomService {
	return &RoomService{
		roomRepo: roomRepo,
		casts:    casts,
		genCode:  roomcode.Generate,
		now:      time.Now,
	}
}

// CreateRoom создает комнату с автором как единственным участником и
// возвращает её код. Коллизия кода — новый код и повторная попытка.
func (s *RoomService) CreateRoom(ctx context.Context, creator *domain.User, username string, temporary bool) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", domain.ErrEmptyUsername
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		code := s.genCode()
		room := &domain.Room{
			Code:         code,
			CreatorID:    creator.ID,
			CreatorEmail: creator.Email,
			Open:         true,
			Temporary:    temporary,
			Participants: []string{username},
			CreatedAt:    s.now(),
		}

		err := s.roomRepo.Create(ctx, room)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return "", fmt.Errorf("roomRepo.Create: %w", err)
		}
		slog.Warn("room code collision", "code", code, "attempt", attempt)
	}

	return "", fmt.Errorf("roomRepo.Create: %w after %d attempts", repository.ErrAlreadyExists, maxCreateAttempts)
}

// GetRoom возвращает комнату по коду.
func (s *RoomService) GetRoom(ctx context.Context, code string) (*domain.Room, error) {
	return s.roomRepo.Get(ctx, code)
}

// JoinRoom добавляет username в конец participants.
// domain.ErrRoomNotFound / ErrRoomClosed / ErrDuplicateUsername.
func (s *RoomService) JoinRoom(ctx context.Context, code, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.ErrEmptyUsername
	}

	return s.roomRepo.AppendParticipant(ctx, code, username)
}

// CloseRoom — мягкое закрытие: данные остаются, новые join и send отклоняются.
func (s *RoomService) CloseRoom(ctx context.Context, code string) error {
	return s.roomRepo.Close(ctx, code)
}

// DeleteRoom — каскадное удаление комнаты; live-подписки на неё завершаются.
func (s *RoomService) DeleteRoom(ctx context.Context, code string) error {
	if err := s.roomRepo.Delete(ctx, code); err != nil {
		return fmt.Errorf("roomRepo.Delete: %w", err)
	}
	s.casts.CloseRoom(code)

	return nil
}

// CheckRoomOwnership — true только для создателя.
// Отсутствующая комната или ошибка чтения — false, не ошибка.
func (s *RoomService) CheckRoomOwnership(ctx context.Context, code string, callerID domain.UserID) bool {
	room, err := s.roomRepo.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) {
			slog.Warn("ownership check failed", "room", code, "err", err)
		}
		return false
	}

	return room.IsOwnedBy(callerID)
}

// CheckAndDeleteTemporaryRoom удаляет комнату, если она временная и вызвана
// её создателем. Во всех остальных случаях, включая отсутствие комнаты, — no-op.
func (s *RoomService) CheckAndDeleteTemporaryRoom(ctx context.Context, code string, callerID domain.UserID) error {
	room, err := s.roomRepo.Get(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		return fmt.Errorf("roomRepo.Get: %w", err)
	}

	if !room.Temporary || !room.IsOwnedBy(callerID) {
		return nil
	}

	return s.DeleteRoom(ctx, code)
}
