package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository"
)

// PresenceService — best-effort отметки «онлайн» внутри комнаты.
// Без TTL: клиент, упавший без SetPresent(false), остается «present».
type PresenceService struct {
	presenceRepo repository.PresenceRepository

	now func() time.Time
}

func NewPresenceService(presenceRepo repository.PresenceRepository) *PresenceService {
	return &PresenceService{
		presenceRepo: presenceRepo,
		now:          time.Now,
	}
}

// SetPresent перетирает запись {present, lastSeen=now} для username в комнате.
func (s *PresenceService) SetPresent(ctx context.Context, roomCode, username string, present bool) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.ErrEmptyUsername
	}

	if err := s.presenceRepo.Upsert(ctx, roomCode, username, present, s.now()); err != nil {
		return fmt.Errorf("presenceRepo.Upsert: %w", err)
	}

	return nil
}

// Touch обновляет lastSeen, не меняя флаг — heartbeat от живого соединения.
func (s *PresenceService) Touch(ctx context.Context, roomCode, username string) error {
	return s.SetPresent(ctx, roomCode, username, true)
}

func (s *PresenceService) ListPresence(ctx context.Context, roomCode string) ([]domain.Presence, error) {
	return s.presenceRepo.ListByRoom(ctx, roomCode)
}
