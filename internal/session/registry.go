package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/metrics"
)

// Client is one browser's server-side state: its synchronizer and the
// mailbox that synchronizer navigates and notifies through.
type Client struct {
	ID      string
	Sync    *Synchronizer
	Mailbox *Mailbox

	lastSeen time.Time
}

// Registry owns every live portal client. Clients idle longer than the
// configured TTL are closed by Sweep.
type Registry struct {
	base    Config
	idleTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry builds a registry. base supplies the shared dependencies of
// every synchronizer; its Navigator, Notifier and AccessToken are replaced
// per client.
func NewRegistry(base Config, idleTTL time.Duration) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	logger := base.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		base:    base,
		idleTTL: idleTTL,
		logger:  logger,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[string]*Client),
	}
}

// Open creates and starts a client, restoring the session behind accessToken.
func (r *Registry) Open(accessToken string) *Client {
	mb := NewMailbox()
	cfg := r.base
	cfg.Navigator = mb
	cfg.Notifier = mb
	cfg.AccessToken = accessToken

	c := &Client{
		ID:      uuid.NewString(),
		Sync:    New(cfg),
		Mailbox: mb,
	}
	r.mu.Lock()
	c.lastSeen = r.now()
	r.clients[c.ID] = c
	r.mu.Unlock()

	c.Sync.Start(r.ctx)
	metrics.ActiveClients.Inc()
	return c
}

// Lookup returns a live client and marks it as seen.
func (r *Registry) Lookup(id string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if ok {
		c.lastSeen = r.now()
	}
	return c, ok
}

// Remove closes and forgets a client.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	c, ok := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()
	if ok {
		c.Sync.Close()
		metrics.ActiveClients.Dec()
	}
}

// Len returns the number of live clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep closes clients idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	var idle []*Client
	r.mu.Lock()
	for id, c := range r.clients {
		if c.lastSeen.Before(cutoff) {
			idle = append(idle, c)
			delete(r.clients, id)
		}
	}
	r.mu.Unlock()

	for _, c := range idle {
		c.Sync.Close()
		metrics.ActiveClients.Dec()
	}
	if len(idle) > 0 {
		r.logger.Debug("idle portal clients closed", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close tears down every client.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	for _, c := range clients {
		c.Sync.Close()
		metrics.ActiveClients.Dec()
	}
	r.cancel()
}
