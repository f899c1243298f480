package repository

import (
	"context"
	"time"

	"github.com/wishp-chat/chatroom-service/internal/domain"
)

type PresenceRepository interface {
	// Upsert по (room_code, username); каждая запись перетирает предыдущую
	Upsert(ctx context.Context, roomCode, username string, present bool, now time.Time) error
	ListByRoom(ctx context.Context, roomCode string) ([]domain.Presence, error)
}
