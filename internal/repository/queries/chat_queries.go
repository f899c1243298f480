package queries

const (
	// FOR SHARE: не даем комнате закрыться/удалиться между проверкой и вставкой
	QueryLockRoomForSend = `
		SELECT room_open FROM rooms WHERE room_code = $1 FOR SHARE;
	`
	QuerySaveMessage = `
		INSERT INTO room_messages (room_code, username, text)
		VALUES ($1, $2, $3)
		RETURNING id, room_code, username, text, created_at;
	`
	QueryListAllMessages = `
		SELECT id, room_code, username, text, created_at
		FROM room_messages
		WHERE room_code = $1
		ORDER BY created_at ASC, id ASC;
	`
	QueryMessageHistory = `
		SELECT id, room_code, username, text, created_at
		FROM room_messages
		WHERE room_code = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4;
	`
)
