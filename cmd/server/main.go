package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/auth"
	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/config"
	"github.com/Lazitesema/cashora-landing-haven/internal/logging"
	"github.com/Lazitesema/cashora-landing-haven/internal/metrics"
	"github.com/Lazitesema/cashora-landing-haven/internal/server"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage/memory"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage/postgres"
	redisstore "github.com/Lazitesema/cashora-landing-haven/internal/storage/redis"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer store.Close()

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		logger.Fatal("init session store", zap.Error(err))
	}
	defer closeSessions()

	objects, err := backend.NewObjects(cfg.StoragePublicURL)
	if err != nil {
		logger.Fatal("parse STORAGE_PUBLIC_URL", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	be := backend.NewLocal(store, sessions, tokens, logger)

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	srv, err := server.New(server.Options{
		Addr:            cfg.HTTPAddress(),
		CORSOrigins:     cfg.CORSOrigins,
		CookieSecure:    cfg.CookieSecure,
		SessionInitWait: cfg.SessionInitWait,
		ClientIdleTTL:   cfg.ClientIdleTTL,
		Objects:         objects,
		Registry:        registry,
	}, be, logger)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	go func() {
		logger.Info("Cashora portal listening",
			zap.String("addr", cfg.HTTPAddress()),
			zap.String("store", cfg.BackendStore))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.BackendStore == config.StoreMemory {
		return memory.NewStore(), nil
	}
	return postgres.NewStore(ctx, cfg.DatabaseURL)
}

func openSessions(ctx context.Context, cfg config.Config) (storage.SessionStore, func(), error) {
	if cfg.RedisAddr == "" {
		return memory.NewSessionStore(), func() {}, nil
	}
	sessions, err := redisstore.NewSessionStore(ctx, redisstore.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return sessions, func() { _ = sessions.Close() }, nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
