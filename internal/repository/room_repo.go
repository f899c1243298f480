package repository

import (
	"context"

	"github.com/wishp-chat/chatroom-service/internal/domain"
)

type RoomRepository interface {
	// Создает комнату; ErrAlreadyExists при коллизии кода
	Create(ctx context.Context, room *domain.Room) error
	// Ищет комнату по коду; domain.ErrRoomNotFound если её нет
	Get(ctx context.Context, code string) (*domain.Room, error)
	// Атомарный join: проверка open/дубликата и append под блокировкой строки.
	// Возвращает domain.ErrRoomNotFound / ErrRoomClosed / ErrDuplicateUsername.
	AppendParticipant(ctx context.Context, code, username string) error
	// Переводит room_open в false; идемпотентно для уже закрытой комнаты
	Close(ctx context.Context, code string) error
	// Каскадное удаление: сообщения, presence, комната — одной транзакцией.
	// Идемпотентно: отсутствие комнаты не ошибка.
	Delete(ctx context.Context, code string) error
}
