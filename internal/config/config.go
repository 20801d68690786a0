package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend stores.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Env         string
	LogLevel    string
	Port        string
	DatabaseURL string

	// BackendStore selects the row store: postgres or memory.
	BackendStore string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	CORSOrigins  []string
	CookieSecure bool

	// RedisAddr empty keeps sessions in process memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StoragePublicURL string

	// SessionInitWait bounds how long a guarded request waits for a new
	// portal client to finish restoring its session.
	SessionInitWait time.Duration
	ClientIdleTTL   time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Env:              strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		LogLevel:         strings.TrimSpace(v.GetString("LOG_LEVEL")),
		Port:             strings.TrimSpace(v.GetString("PORT")),
		DatabaseURL:      strings.TrimSpace(v.GetString("DATABASE_URL")),
		BackendStore:     strings.ToLower(strings.TrimSpace(v.GetString("BACKEND_STORE"))),
		JWTSecret:        strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTIssuer:        strings.TrimSpace(v.GetString("JWT_ISSUER")),
		CORSOrigins:      parseCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
		CookieSecure:     v.GetBool("COOKIE_SECURE"),
		RedisAddr:        strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		StoragePublicURL: strings.TrimSpace(v.GetString("STORAGE_PUBLIC_URL")),
		SessionInitWait:  v.GetDuration("SESSION_INIT_WAIT"),
		ClientIdleTTL:    v.GetDuration("CLIENT_IDLE_TTL"),
	}

	if minutes := v.GetInt("JWT_TTL_MINUTES"); minutes > 0 {
		cfg.JWTTTL = time.Duration(minutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	switch cfg.BackendStore {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case StoreMemory:
	default:
		return Config{}, fmt.Errorf("BACKEND_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.BackendStore)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Production() && slices.Contains(cfg.CORSOrigins, "*") {
		return Config{}, errors.New("CORS_ALLOWED_ORIGINS must list explicit origins in production")
	}
	if cfg.SessionInitWait <= 0 {
		return Config{}, errors.New("SESSION_INIT_WAIT must be positive")
	}
	if cfg.ClientIdleTTL <= 0 {
		return Config{}, errors.New("CLIENT_IDLE_TTL must be positive")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Production reports whether APP_ENV is production.
func (c Config) Production() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BACKEND_STORE", StorePostgres)
	v.SetDefault("JWT_ISSUER", "cashora-portal")
	v.SetDefault("JWT_TTL_MINUTES", 60)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_INIT_WAIT", "3s")
	v.SetDefault("CLIENT_IDLE_TTL", "30m")
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
