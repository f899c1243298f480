package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/wishp-chat/chatroom-service/internal/domain"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// TokenVerifier проверяет access-токен и возвращает userID из sub.
type TokenVerifier interface {
	UserIDFromAccessToken(token string) (domain.UserID, error)
}

// AuthMiddleware требует валидный Bearer access-токен
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			uid, err := verifier.UserIDFromAccessToken(strings.TrimSpace(auth[7:]))
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromCtx(ctx context.Context) domain.UserID {
	if v := ctx.Value(ctxKeyUserID); v != nil {
		if id, ok := v.(domain.UserID); ok {
			return id
		}
	}
	return 0
}
