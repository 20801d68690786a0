package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

var _ storage.SessionStore = (*SessionStore)(nil)

type sessionEntry struct {
	session   models.Session
	expiresAt time.Time
}

// pruneInterval bounds how often SaveSession scans for expired entries.
const pruneInterval = time.Minute

// SessionStore keeps auth sessions in a map with per-entry expiry. Expired
// entries are dropped when read and pruned periodically on write.
type SessionStore struct {
	mu        sync.Mutex
	now       func() time.Time
	lastPrune time.Time
	entries   map[string]sessionEntry
}

// NewSessionStore returns an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{now: time.Now, entries: make(map[string]sessionEntry)}
}

// SaveSession stores or replaces a session for ttl.
func (s *SessionStore) SaveSession(_ context.Context, session models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastPrune) >= pruneInterval {
		for id, entry := range s.entries {
			if !now.Before(entry.expiresAt) {
				delete(s.entries, id)
			}
		}
		s.lastPrune = now
	}
	s.entries[session.ID] = sessionEntry{session: session, expiresAt: now.Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// GetSession returns a live session or storage.ErrNotFound.
func (s *SessionStore) GetSession(_ context.Context, id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return models.Session{}, storage.ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, id)
		return models.Session{}, storage.ErrNotFound
	}
	return entry.session, nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *SessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
