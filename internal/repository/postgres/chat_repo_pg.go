package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository/queries"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepo struct {
	db *pgxpool.Pool
}

func NewChatRepo(db *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{db: db}
}

// SaveIfOpen — проверка room_open и вставка в одной транзакции,
// чтобы сообщение не легло в комнату, закрытую между чтением и записью.
func (r *ChatRepo) SaveIfOpen(ctx context.Context, roomCode, username, text string) (*domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer tx.Rollback(ctx)

	var open bool
	if err := tx.QueryRow(ctx, queries.QueryLockRoomForSend, roomCode).Scan(&open); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, mapPgError(err)
	}
	if !open {
		return nil, domain.ErrRoomClosed
	}

	var m domain.Message
	err = tx.QueryRow(ctx, queries.QuerySaveMessage, roomCode, username, text).Scan(
		&m.ID, &m.RoomCode, &m.Username, &m.Text, &m.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError(err)
	}

	return &m, nil
}

// ListAll возвращает все сообщения комнаты по возрастанию (created_at, id) —
// снапшот для live-подписки.
func (r *ChatRepo) ListAll(ctx context.Context, roomCode string) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, queries.QueryListAllMessages, roomCode)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0, 32)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.Username, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// History возвращает историю сообщений комнаты с курсорной пагинацией (created_at,id DESC).
func (r *ChatRepo) History(ctx context.Context, roomCode, after string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, queries.QueryMessageHistory, roomCode, createdAt, id, limit)
	if err != nil {
		return nil, "", mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.Username, &m.Text, &m.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}
