package ws

// Типы событий в WS-потоке комнаты
const (
	TypeState    = "state"    // снапшот всех сообщений комнаты
	TypeChat     = "chat"     // входящее чат-сообщение от клиента
	TypeChatAck  = "chat_ack" // подтверждение отправки
	TypePresence = "presence" // клиент меняет свой флаг present
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatePayload struct {
	RoomCode string             `json:"room_code"`
	Messages []MessageStateItem `json:"messages"`
}

type MessageStateItem struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
	TSUnix   int64  `json:"ts_unix"`
}

type ChatPayload struct {
	Message string `json:"message"`
}

// для клиента: снимает pending и дедуплицирует
type ChatAckPayload struct {
	MsgID int64 `json:"msg_id"`
}

type PresencePayload struct {
	Present bool `json:"present"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
