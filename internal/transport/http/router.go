package http

import (
	"net/http"
	"time"

	"github.com/wishp-chat/chatroom-service/internal/service"
	httpmw "github.com/wishp-chat/chatroom-service/internal/transport/http/middleware"
	"github.com/wishp-chat/chatroom-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, ah *AuthHandler, verifier httpmw.TokenVerifier, presenceSvc *service.PresenceService, wsServer *ws.Server, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Username"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// WS endpoint: токен передается query-параметром
	r.Get("/ws/rooms/{code}", wsServer.HandleWS)

	// Auth: без Bearer
	r.Route("/auth", func(ar chi.Router) {
		ar.Use(middlewareChi.Timeout(requestTimeout))

		ar.Post("/signup", ah.SignUp)
		ar.Post("/login", ah.Login)
		ar.Post("/refresh", ah.Refresh)
	})

	// Все остальные маршруты требуют access-токен
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(verifier))
		pr.Use(middlewareChi.Timeout(requestTimeout))

		pr.Get("/auth/me", ah.Me)
		pr.Post("/auth/logout", ah.Logout)

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Post("/", h.CreateRoom)

			rm.Route("/{code}", func(rr chi.Router) {
				rr.Use(httpmw.HeartbeatMiddleware(presenceSvc))

				rr.Get("/", h.GetRoom)
				rr.Post("/join", h.JoinRoom)
				rr.Post("/close", h.CloseRoom)
				rr.Post("/leave", h.LeaveRoom)
				rr.Delete("/", h.DeleteRoom)

				rr.Get("/messages", h.GetMessages)
				rr.Post("/messages", h.SendMessage)

				rr.Get("/presence", h.GetPresence)
				rr.Put("/presence", h.SetPresence)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
