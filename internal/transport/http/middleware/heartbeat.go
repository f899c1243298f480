package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// PresenceToucher обновляет lastSeen для {roomCode, username}.
type PresenceToucher interface {
	Touch(ctx context.Context, roomCode, username string) error
}

// HeartbeatMiddleware обновляет lastSeen, если запрос идёт в комнату и
// несёт X-Username. Best-effort: ошибки не прерывают запрос.
func HeartbeatMiddleware(presence PresenceToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username := strings.TrimSpace(r.Header.Get("X-Username")); username != "" {
				if code := chi.URLParam(r, "code"); code != "" {
					_ = presence.Touch(r.Context(), code, username)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
