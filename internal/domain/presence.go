package domain

import "time"

// Presence — best-effort отметка «онлайн» внутри комнаты.
// Не согласована с Room.Participants.
type Presence struct {
	RoomCode string    `db:"room_code"`
	Username string    `db:"username"`
	Present  bool      `db:"is_present"`
	LastSeen time.Time `db:"last_seen"`
}
