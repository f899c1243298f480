package postgres

import (
	"context"
	"time"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository/queries"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PresenceRepo struct {
	db *pgxpool.Pool
}

func NewPresenceRepo(db *pgxpool.Pool) *PresenceRepo {
	return &PresenceRepo{db: db}
}

func (r *PresenceRepo) Upsert(ctx context.Context, roomCode, username string, present bool, now time.Time) error {
	_, err := r.db.Exec(ctx, queries.QueryUpsertPresence, roomCode, username, present, now)
	if err != nil {
		return mapPgError(err)
	}

	return nil
}

func (r *PresenceRepo) ListByRoom(ctx context.Context, roomCode string) ([]domain.Presence, error) {
	rows, err := r.db.Query(ctx, queries.QueryListPresenceByRoom, roomCode)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Presence, 0, 8)
	for rows.Next() {
		var p domain.Presence
		if err := rows.Scan(&p.RoomCode, &p.Username, &p.Present, &p.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}
