package queries

const (
	QueryCreateRoom = `
		INSERT INTO rooms (room_code, creator_id, creator_email, room_open, is_temporary, participants, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (room_code) DO NOTHING;
	`
	QueryGetRoom = `
		SELECT room_code, creator_id, creator_email, room_open, is_temporary, participants, created_at
		FROM rooms
		WHERE room_code = $1;
	`
	// Блокируем строку комнаты: параллельные join по той же комнате будут ждать.
	QueryLockRoomForJoin = `
		SELECT room_open, participants FROM rooms WHERE room_code = $1 FOR UPDATE;
	`
	QueryAppendParticipant = `
		UPDATE rooms SET participants = array_append(participants, $2) WHERE room_code = $1;
	`
	QueryCloseRoom = `
		UPDATE rooms SET room_open = FALSE WHERE room_code = $1;
	`
	QueryDeleteRoomMessages = `DELETE FROM room_messages WHERE room_code = $1;`
	QueryDeleteRoomPresence = `DELETE FROM room_presence WHERE room_code = $1;`
	QueryDeleteRoom         = `DELETE FROM rooms WHERE room_code = $1;`
)
