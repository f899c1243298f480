package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wishp-chat/chatroom-service/config"
	"github.com/wishp-chat/chatroom-service/internal/repository/postgres"
	"github.com/wishp-chat/chatroom-service/internal/security"
	"github.com/wishp-chat/chatroom-service/internal/service"
	httpx "github.com/wishp-chat/chatroom-service/internal/transport/http"
	"github.com/wishp-chat/chatroom-service/internal/transport/ws"
	"github.com/wishp-chat/chatroom-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chatroom-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres.ToPGConfig())
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	roomRepo := postgres.NewRoomRepo(pool)
	chatRepo := postgres.NewChatRepo(pool)
	presenceRepo := postgres.NewPresenceRepo(pool)
	userRepo := postgres.NewUserRepoFromPool(pool)
	sessionRepo := postgres.NewSessionRepoFromPool(pool)

	// --- security ---
	priv, err := security.LoadRSAPrivateKeyFromPEM(cfg.Security.JWT.PrivateKeyPath)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pub, err := security.LoadRSAPublicKeyFromPEM(cfg.Security.JWT.PublicKeyPath)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	signer := security.NewJWTSigner(priv, pub,
		cfg.Security.JWT.Issuer, cfg.Security.JWT.Audience,
		cfg.Security.JWT.AccessTTL, cfg.Security.JWT.ClockSkew)

	// --- services ---
	casts := service.NewBroadcaster()
	roomSvc := service.NewRoomService(roomRepo, casts)
	chatSvc := service.NewChatService(chatRepo, casts)
	presenceSvc := service.NewPresenceService(presenceRepo)
	authSvc := service.NewAuthService(userRepo, sessionRepo, signer,
		cfg.Security.JWT.RefreshTTL,
		security.BcryptConfig{
			Cost:      cfg.Security.Password.BcryptCost,
			MinLength: cfg.Security.Password.MinLength,
		}, nil)

	// --- transport ---
	wsServer := ws.NewServer(roomSvc, chatSvc, presenceSvc, authSvc)
	handler := httpx.NewHandler(roomSvc, chatSvc, presenceSvc, authSvc)
	authHandler := httpx.NewAuthHandler(authSvc)
	router := httpx.NewRouter(handler, authHandler, authSvc, presenceSvc, wsServer, cfg.Server.RequestTimeout)

	httpSrv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
