package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

const defaultPrefix = "cashora:auth:session:"

var _ storage.SessionStore = (*SessionStore)(nil)

// SessionStore keeps auth sessions in Redis with a TTL per key.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewSessionStore connects to Redis and verifies the connection.
func NewSessionStore(ctx context.Context, opts Options) (*SessionStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewSessionStoreWithClient(client, opts.Prefix), nil
}

// NewSessionStoreWithClient wraps an existing client.
func NewSessionStoreWithClient(client *goredis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

// Close releases the Redis connection pool.
func (s *SessionStore) Close() error {
	return s.client.Close()
}

// SaveSession stores or replaces a session for ttl.
func (s *SessionStore) SaveSession(ctx context.Context, session models.Session, ttl time.Duration) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+session.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetSession returns a live session or storage.ErrNotFound.
func (s *SessionStore) GetSession(ctx context.Context, id string) (models.Session, error) {
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return models.Session{}, storage.ErrNotFound
		}
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
