// Command seed bootstraps an administrator account in the configured store.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/auth"
	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/config"
	"github.com/Lazitesema/cashora-landing-haven/internal/logging"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage/memory"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage/postgres"
)

func main() {
	email := flag.String("email", "admin@cashora.local", "administrator email")
	password := flag.String("password", "", "administrator password (min 8 characters)")
	username := flag.String("username", "admin", "administrator username")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.BackendStore != config.StorePostgres {
		logger.Fatal("seeding needs BACKEND_STORE=postgres")
	}
	if len(*password) < 8 {
		logger.Fatal("password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer store.Close()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	be := backend.NewLocal(store, memory.NewSessionStore(), tokens, logger)

	identity, err := be.SignUp(ctx, *email, *password, models.SignUpMetadata{
		FirstName: "Portal",
		LastName:  "Admin",
		Username:  *username,
	})
	switch {
	case errors.Is(err, backend.ErrUserExists):
		identity, err = store.FindIdentityByEmail(ctx, *email)
		if err != nil {
			logger.Fatal("find existing admin", zap.Error(err))
		}
	case err != nil:
		logger.Fatal("create admin", zap.Error(err))
	}

	if err := store.UpdateProfileRole(ctx, identity.ID, models.RoleAdmin); err != nil {
		logger.Fatal("grant admin role", zap.Error(err))
	}
	if err := store.UpdateProfileStatus(ctx, identity.ID, models.StatusApproved); err != nil {
		logger.Fatal("approve admin", zap.Error(err))
	}
	logger.Info("admin ready", zap.String("email", *email), zap.String("id", identity.ID.String()))
}
