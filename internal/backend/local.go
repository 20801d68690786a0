package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lazitesema/cashora-landing-haven/internal/auth"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

var (
	// ErrInvalidCredentials is returned by SignInWithPassword for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrUserExists is returned by SignUp when the email or username is taken.
	ErrUserExists = errors.New("user already registered")
	// ErrSessionNotFound is returned for missing, expired or revoked sessions.
	ErrSessionNotFound = errors.New("auth session missing")
)

// Local is the backend the portal talks to: auth, row access and auth-state
// events on top of a storage.Store and a storage.SessionStore.
//
// It embeds the row store; UpdateProfileStatus is overridden so that status
// changes reach live sessions of that user as USER_UPDATED events.
type Local struct {
	storage.Store
	sessions storage.SessionStore
	tokens   *auth.TokenManager
	hub      *Hub
	logger   *zap.Logger
	hashCost int
}

// Option customises a Local backend.
type Option func(*Local)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(l *Local) { l.hashCost = cost }
}

// NewLocal wires a backend around the given stores.
func NewLocal(store storage.Store, sessions storage.SessionStore, tokens *auth.TokenManager, logger *zap.Logger, opts ...Option) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Local{
		Store:    store,
		sessions: sessions,
		tokens:   tokens,
		hub:      NewHub(logger),
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe registers an auth-state listener.
func (l *Local) Subscribe() *Subscription {
	return l.hub.Subscribe()
}

// SignUp creates an identity with personal metadata. The profile starts pending.
func (l *Local) SignUp(ctx context.Context, email, password string, meta models.SignUpMetadata) (models.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.hashCost)
	if err != nil {
		return models.Identity{}, fmt.Errorf("hash password: %w", err)
	}
	identity, err := l.Store.CreateIdentity(ctx, models.Identity{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
	}, meta)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Identity{}, ErrUserExists
		}
		return models.Identity{}, fmt.Errorf("create identity: %w", err)
	}
	l.logger.Info("identity created", zap.String("user_id", identity.ID.String()))
	return identity, nil
}

// SignInWithPassword checks credentials and opens a new session.
func (l *Local) SignInWithPassword(ctx context.Context, email, password string) (models.Session, error) {
	identity, err := l.Store.FindIdentityByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Session{}, ErrInvalidCredentials
		}
		return models.Session{}, fmt.Errorf("find identity: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return models.Session{}, ErrInvalidCredentials
	}

	session, err := l.issue(ctx, uuid.NewString(), identity.ID, identity.Email)
	if err != nil {
		return models.Session{}, err
	}
	l.publish(EventSignedIn, session)
	return session, nil
}

// GetSession resolves an access token to its live session.
func (l *Local) GetSession(ctx context.Context, accessToken string) (models.Session, error) {
	if strings.TrimSpace(accessToken) == "" {
		return models.Session{}, ErrSessionNotFound
	}
	claims, err := l.tokens.Parse(accessToken)
	if err != nil {
		return models.Session{}, ErrSessionNotFound
	}
	session, err := l.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}
	if session.AccessToken != accessToken {
		// superseded by a refresh
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession replaces the access token of a live session.
func (l *Local) RefreshSession(ctx context.Context, accessToken string) (models.Session, error) {
	current, err := l.GetSession(ctx, accessToken)
	if err != nil {
		return models.Session{}, err
	}
	session, err := l.issue(ctx, current.ID, current.UserID, current.Email)
	if err != nil {
		return models.Session{}, err
	}
	l.publish(EventTokenRefreshed, session)
	return session, nil
}

// SignOut revokes the session behind accessToken.
func (l *Local) SignOut(ctx context.Context, accessToken string) error {
	session, err := l.GetSession(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := l.sessions.DeleteSession(ctx, session.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	l.publish(EventSignedOut, session)
	return nil
}

// UpdateProfileStatus writes the status and notifies live sessions of the user.
func (l *Local) UpdateProfileStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	if err := l.Store.UpdateProfileStatus(ctx, id, status); err != nil {
		return err
	}
	l.hub.Publish(Event{Type: EventUserUpdated, UserID: id})
	return nil
}

func (l *Local) issue(ctx context.Context, sessionID string, userID uuid.UUID, email string) (models.Session, error) {
	token, expiresAt, err := l.tokens.Generate(sessionID, userID, email)
	if err != nil {
		return models.Session{}, err
	}
	session := models.Session{
		ID:          sessionID,
		UserID:      userID,
		Email:       email,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}
	if err := l.sessions.SaveSession(ctx, session, time.Until(expiresAt)); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

func (l *Local) publish(t EventType, session models.Session) {
	s := session
	l.hub.Publish(Event{Type: t, UserID: session.UserID, SessionID: session.ID, Session: &s})
}
