// Package memory is an in-process storage.Store used by tests and by
// BACKEND_STORE=memory for local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	identities map[string]models.Identity
	profiles   map[uuid.UUID]models.Profile
	limits     map[uuid.UUID][]models.UserLimit
	requests   map[models.RequestKind]map[uuid.UUID]models.Request
	failNext   error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:        time.Now,
		identities: make(map[string]models.Identity),
		profiles:   make(map[uuid.UUID]models.Profile),
		limits:     make(map[uuid.UUID][]models.UserLimit),
		requests: map[models.RequestKind]map[uuid.UUID]models.Request{
			models.KindDeposit:    {},
			models.KindWithdrawal: {},
			models.KindSending:    {},
		},
	}
}

// Close is a no-op.
func (s *Store) Close() {}

// FailNext makes the next store call return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

// CreateIdentity inserts an identity and its pending profile.
func (s *Store) CreateIdentity(_ context.Context, identity models.Identity, meta models.SignUpMetadata) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return models.Identity{}, err
	}

	email := strings.ToLower(identity.Email)
	if _, ok := s.identities[email]; ok {
		return models.Identity{}, storage.ErrAlreadyExists
	}
	for _, p := range s.profiles {
		if p.Username == meta.Username {
			return models.Identity{}, storage.ErrAlreadyExists
		}
	}

	now := s.now()
	identity.ID = uuid.New()
	identity.Email = email
	identity.CreatedAt = now
	s.identities[email] = identity
	s.profiles[identity.ID] = models.Profile{
		ID:            identity.ID,
		FirstName:     meta.FirstName,
		LastName:      meta.LastName,
		Username:      meta.Username,
		DateOfBirth:   meta.DateOfBirth,
		PlaceOfBirth:  meta.PlaceOfBirth,
		Residence:     meta.Residence,
		Nationality:   meta.Nationality,
		Role:          models.RoleUser,
		Status:        models.StatusPending,
		Balance:       decimal.Zero,
		WithdrawalFee: models.Fee{Type: models.FeePercentage, Value: decimal.Zero},
		SendingFee:    models.Fee{Type: models.FeePercentage, Value: decimal.Zero},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return identity, nil
}

// FindIdentityByEmail looks an identity up by email.
func (s *Store) FindIdentityByEmail(_ context.Context, email string) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return models.Identity{}, err
	}
	identity, ok := s.identities[strings.ToLower(email)]
	if !ok {
		return models.Identity{}, storage.ErrNotFound
	}
	return identity, nil
}

// PutProfile replaces a profile row; tests use it to seed state.
func (s *Store) PutProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// PutLimit appends a user_limits row.
func (s *Store) PutLimit(limit models.UserLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit.ID == uuid.Nil {
		limit.ID = uuid.New()
	}
	s.limits[limit.UserID] = append(s.limits[limit.UserID], limit)
}

// GetProfile returns one profile, optionally with limits.
func (s *Store) GetProfile(_ context.Context, id uuid.UUID, withLimits bool) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return models.Profile{}, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, storage.ErrNotFound
	}
	if withLimits {
		p.Limits = append([]models.UserLimit(nil), s.limits[id]...)
	}
	return p, nil
}

// ListProfiles returns all profiles with limits, newest first.
func (s *Store) ListProfiles(_ context.Context) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, len(s.profiles))
	for id, p := range s.profiles {
		p.Limits = append([]models.UserLimit(nil), s.limits[id]...)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateProfileStatus sets a profile's status.
func (s *Store) UpdateProfileStatus(_ context.Context, id uuid.UUID, status models.Status) error {
	return s.mutateProfile(id, func(p *models.Profile) { p.Status = status })
}

// UpdateProfileRole sets a profile's role.
func (s *Store) UpdateProfileRole(_ context.Context, id uuid.UUID, role models.Role) error {
	return s.mutateProfile(id, func(p *models.Profile) { p.Role = role })
}

func (s *Store) mutateProfile(id uuid.UUID, fn func(*models.Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	p, ok := s.profiles[id]
	if !ok {
		return storage.ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = s.now()
	s.profiles[id] = p
	return nil
}

// CountProfiles returns the number of profiles.
func (s *Store) CountProfiles(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return 0, err
	}
	return len(s.profiles), nil
}

// CreateRequest inserts a pending request.
func (s *Store) CreateRequest(_ context.Context, req models.Request) (models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return models.Request{}, err
	}
	table, ok := s.requests[req.Kind]
	if !ok {
		return models.Request{}, fmt.Errorf("unknown request kind %q", req.Kind)
	}
	if req.Kind == models.KindSending && req.RecipientID == nil {
		return models.Request{}, fmt.Errorf("sending request requires a recipient")
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	req.UpdatedAt = req.CreatedAt
	req.Status = models.StatusPending
	table[req.ID] = req
	return req, nil
}

// ListRequests returns one kind's rows, newest first.
func (s *Store) ListRequests(_ context.Context, kind models.RequestKind) ([]models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	table, ok := s.requests[kind]
	if !ok {
		return nil, fmt.Errorf("unknown request kind %q", kind)
	}
	out := make([]models.Request, 0, len(table))
	for _, req := range table {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateRequest applies an admin decision.
func (s *Store) UpdateRequest(_ context.Context, kind models.RequestKind, id uuid.UUID, update storage.RequestUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	table, ok := s.requests[kind]
	if !ok {
		return fmt.Errorf("unknown request kind %q", kind)
	}
	req, ok := table[id]
	if !ok {
		return storage.ErrNotFound
	}
	req.Status = update.Status
	if update.RejectionReason != nil {
		req.RejectionReason = *update.RejectionReason
	}
	if update.TransactionDetails != nil {
		if kind != models.KindWithdrawal {
			return fmt.Errorf("transaction details apply to withdrawals only")
		}
		details := *update.TransactionDetails
		req.TransactionDetails = &details
	}
	req.UpdatedAt = s.now()
	table[id] = req
	return nil
}

// CountRequests counts one kind's rows in a status.
func (s *Store) CountRequests(_ context.Context, kind models.RequestKind, status models.Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return 0, err
	}
	n := 0
	for _, req := range s.requests[kind] {
		if req.Status == status {
			n++
		}
	}
	return n, nil
}
