package backend

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
)

// EventType names an auth-state change.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// Event is pushed to every subscriber when auth state changes. Session is
// set for sign-in and refresh events.
type Event struct {
	Type      EventType
	UserID    uuid.UUID
	SessionID string
	Session   *models.Session
}

const subscriberBuffer = 16

// Hub fans auth events out to subscribers.
type Hub struct {
	logger *zap.Logger
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
}

// NewHub returns a hub with no subscribers.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, subs: make(map[*Subscription]struct{})}
}

// Subscription is one registered listener. Events are buffered and
// publishers never block: a subscriber that falls behind has events dropped
// and is signalled on Lagged instead, so it can resynchronize from the store.
type Subscription struct {
	hub    *Hub
	ch     chan Event
	lagged chan struct{}
}

// Subscribe registers a new listener.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		hub:    h,
		ch:     make(chan Event, subscriberBuffer),
		lagged: make(chan struct{}, 1),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Events returns the delivery channel. It is closed by Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Lagged receives a value after one or more events were dropped for this
// subscriber. Signals coalesce: any number of drops leaves one pending value.
func (s *Subscription) Lagged() <-chan struct{} {
	return s.lagged
}

// Unsubscribe removes the listener and closes its channel. Safe to call twice.
func (s *Subscription) Unsubscribe() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

// Publish delivers e to every subscriber without blocking. A full
// subscriber is marked lagged rather than losing the change silently.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- e:
		default:
			select {
			case sub.lagged <- struct{}{}:
			default:
			}
			h.logger.Warn("auth event dropped for slow subscriber",
				zap.String("type", string(e.Type)),
				zap.String("session_id", e.SessionID))
		}
	}
}

// Subscribers returns the number of registered listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
