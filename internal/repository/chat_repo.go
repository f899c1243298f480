package repository

import (
	"context"

	"github.com/wishp-chat/chatroom-service/internal/domain"
)

type ChatRepository interface {
	// Сохраняет сообщение, если комната открыта.
	// domain.ErrRoomNotFound / ErrRoomClosed — проверка и вставка в одной транзакции.
	SaveIfOpen(ctx context.Context, roomCode, username, text string) (*domain.Message, error)
	// Полный список сообщений комнаты по возрастанию (created_at, id)
	ListAll(ctx context.Context, roomCode string) ([]domain.Message, error)
	// История с курсорной пагинацией (created_at, id DESC)
	History(ctx context.Context, roomCode, after string, limit int) ([]domain.Message, string, error)
}
