package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

// --- auth ---

type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserItem struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type AuthResponse struct {
	User         UserItem `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // секунды жизни access-токена
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// --- rooms ---

type CreateRoomRequest struct {
	Username  string `json:"username"`
	Temporary bool   `json:"temporary"`
}

type JoinRoomRequest struct {
	Username string `json:"username"`
}

type LeaveRoomRequest struct {
	Username string `json:"username"`
}

type RoomItem struct {
	Code         string    `json:"code"`
	CreatorID    int64     `json:"creator_id"`
	CreatorEmail string    `json:"creator_email"`
	Open         bool      `json:"open"`
	Temporary    bool      `json:"temporary"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// --- chat ---

type SendMessageRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

type MessageItem struct {
	ID        int64     `json:"id"`
	RoomCode  string    `json:"room_code"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagesResponse struct {
	Items      []MessageItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// --- presence ---

type SetPresenceRequest struct {
	Username string `json:"username"`
	Present  bool   `json:"present"`
}

type PresenceItem struct {
	Username string    `json:"username"`
	Present  bool      `json:"present"`
	LastSeen time.Time `json:"last_seen"`
}

type PresenceResponse struct {
	Items []PresenceItem `json:"items"`
}
