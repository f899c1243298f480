package queries

const (
	QueryCreateSession = `
		INSERT INTO auth_sessions (user_id, token_hash, expires_at, created_at, updated_at, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`
	QueryGetSessionByTokenHash = `
		SELECT id, user_id, token_hash, expires_at, created_at, updated_at, user_agent
		FROM auth_sessions
		WHERE token_hash = $1
		LIMIT 1;
	`
	QueryDeleteSessionByID           = `DELETE FROM auth_sessions WHERE id = $1;`
	QueryDeleteSessionsByUser        = `DELETE FROM auth_sessions WHERE user_id = $1;`
	QueryDeleteSessionsExpiredByTime = `DELETE FROM auth_sessions WHERE expires_at <= $1;`
)
