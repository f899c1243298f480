package domain

import "time"

type Message struct {
	ID        int64     `db:"id"`
	RoomCode  string    `db:"room_code"`
	Username  string    `db:"username"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}
