package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// IdentityStore persists authentication identities. Creating an identity also
// creates its pending profile.
type IdentityStore interface {
	CreateIdentity(ctx context.Context, identity models.Identity, meta models.SignUpMetadata) (models.Identity, error)
	FindIdentityByEmail(ctx context.Context, email string) (models.Identity, error)
}

// ProfileStore reads and updates rows of profiles and user_limits.
type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID, withLimits bool) (models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	UpdateProfileStatus(ctx context.Context, id uuid.UUID, status models.Status) error
	UpdateProfileRole(ctx context.Context, id uuid.UUID, role models.Role) error
	CountProfiles(ctx context.Context) (int, error)
}

// RequestUpdate lists the columns an admin decision may change. Nil fields
// are left untouched.
type RequestUpdate struct {
	Status             models.Status
	RejectionReason    *string
	TransactionDetails *models.TransactionDetails
}

// RequestStore reads and updates rows of the three request tables.
type RequestStore interface {
	CreateRequest(ctx context.Context, req models.Request) (models.Request, error)
	ListRequests(ctx context.Context, kind models.RequestKind) ([]models.Request, error)
	UpdateRequest(ctx context.Context, kind models.RequestKind, id uuid.UUID, update RequestUpdate) error
	CountRequests(ctx context.Context, kind models.RequestKind, status models.Status) (int, error)
}

// Store is the full row-store surface used by the local backend.
type Store interface {
	IdentityStore
	ProfileStore
	RequestStore
	Close()
}

// SessionStore keeps live auth sessions keyed by session ID.
type SessionStore interface {
	SaveSession(ctx context.Context, session models.Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}
