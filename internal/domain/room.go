package domain

import "time"

// RoomCodeLength — длина публичного кода комнаты.
const RoomCodeLength = 6

type Room struct {
	Code         string    `db:"room_code"`
	CreatorID    UserID    `db:"creator_id"`
	CreatorEmail string    `db:"creator_email"`
	Open         bool      `db:"room_open"`
	Temporary    bool      `db:"is_temporary"`
	Participants []string  `db:"participants"` // порядок = порядок входа
	CreatedAt    time.Time `db:"created_at"`
}

func (r *Room) HasParticipant(username string) bool {
	for _, p := range r.Participants {
		if p == username {
			return true
		}
	}
	return false
}

func (r *Room) IsOwnedBy(userID UserID) bool {
	return r.CreatorID == userID
}
