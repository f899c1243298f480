package postgres

import (
	"context"
	"errors"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository"
	"github.com/wishp-chat/chatroom-service/internal/repository/queries"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepo struct {
	db *pgxpool.Pool
}

func NewRoomRepo(db *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create — вставляет комнату. Коллизия кода не перетирает чужую комнату:
// ON CONFLICT DO NOTHING + проверка RowsAffected → repository.ErrAlreadyExists,
// сервис генерирует новый код и повторяет.
func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) error {
	tag, err := r.db.Exec(ctx, queries.QueryCreateRoom,
		room.Code,
		int64(room.CreatorID),
		room.CreatorEmail,
		room.Open,
		room.Temporary,
		room.Participants,
		room.CreatedAt,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrAlreadyExists
	}

	return nil
}

func (r *RoomRepo) Get(ctx context.Context, code string) (*domain.Room, error) {
	var (
		rm        domain.Room
		creatorID int64
	)
	err := r.db.QueryRow(ctx, queries.QueryGetRoom, code).Scan(
		&rm.Code,
		&creatorID,
		&rm.CreatorEmail,
		&rm.Open,
		&rm.Temporary,
		&rm.Participants,
		&rm.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, mapPgError(err)
	}
	rm.CreatorID = domain.UserID(creatorID)

	return &rm, nil
}

// AppendParticipant — защищён от гонок по participants.
// Два параллельных join с одним username не пройдут проверку дубликата оба:
// строка комнаты блокируется на время транзакции.
func (r *RoomRepo) AppendParticipant(ctx context.Context, code, username string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return mapPgError(err)
	}
	defer tx.Rollback(ctx)

	var (
		open         bool
		participants []string
	)
	if err := tx.QueryRow(ctx, queries.QueryLockRoomForJoin, code).Scan(&open, &participants); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRoomNotFound
		}
		return mapPgError(err)
	}
	if !open {
		return domain.ErrRoomClosed
	}
	for _, p := range participants {
		if p == username {
			return domain.ErrDuplicateUsername
		}
	}

	if _, err := tx.Exec(ctx, queries.QueryAppendParticipant, code, username); err != nil {
		return mapPgError(err)
	}

	return tx.Commit(ctx)
}

// Close — идемпотентно: повторное закрытие снова пишет FALSE.
func (r *RoomRepo) Close(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, queries.QueryCloseRoom, code)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}

	return nil
}

// Delete — каскад одной транзакцией: сообщения, presence, затем комната.
// Повторный вызов по отсутствующей комнате — no-op без ошибки.
func (r *RoomRepo) Delete(ctx context.Context, code string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return mapPgError(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, queries.QueryDeleteRoomMessages, code); err != nil {
		return mapPgError(err)
	}
	if _, err := tx.Exec(ctx, queries.QueryDeleteRoomPresence, code); err != nil {
		return mapPgError(err)
	}
	if _, err := tx.Exec(ctx, queries.QueryDeleteRoom, code); err != nil {
		return mapPgError(err)
	}

	return tx.Commit(ctx)
}
