package queries

const (
	QueryUpsertPresence = `
		INSERT INTO room_presence (room_code, username, is_present, last_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_code, username)
		DO UPDATE SET is_present = EXCLUDED.is_present, last_seen = EXCLUDED.last_seen;
	`
	QueryListPresenceByRoom = `
		SELECT room_code, username, is_present, last_seen
		FROM room_presence
		WHERE room_code = $1
		ORDER BY username;
	`
)
