// Package roomcode генерирует публичные коды комнат.
package roomcode

import (
	"crypto/rand"
	"math/big"

	"github.com/wishp-chat/chatroom-service/internal/domain"
)

// Alphabet — 36 символов; каждый символ кода выбирается независимо,
// так что коллизии возможны и проверяются на записи.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func Generate() string {
	out := make([]byte, domain.RoomCodeLength)
	for i := range out {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(Alphabet))))
		out[i] = Alphabet[n.Int64()]
	}

	return string(out)
}
