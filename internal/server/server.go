package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/guard"
	"github.com/Lazitesema/cashora-landing-haven/internal/http/handlers"
	"github.com/Lazitesema/cashora-landing-haven/internal/metrics"
	"github.com/Lazitesema/cashora-landing-haven/internal/middleware"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/profile"
	"github.com/Lazitesema/cashora-landing-haven/internal/review"
	"github.com/Lazitesema/cashora-landing-haven/internal/routes"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
	"github.com/Lazitesema/cashora-landing-haven/internal/users"
)

// Options configures the portal surface.
type Options struct {
	Addr            string
	CORSOrigins     []string
	CookieSecure    bool
	SessionInitWait time.Duration
	ClientIdleTTL   time.Duration
	Objects         *backend.Objects
	Registry        *prometheus.Registry
}

// Server wraps an http.Server with configured routes and the portal client
// registry.
type Server struct {
	inner    *http.Server
	clients  *session.Registry
	sweepers context.CancelFunc
	logger   *zap.Logger
}

// New wires up middleware, routes, and returns a ready server.
func New(opts Options, be *backend.Local, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clients := session.NewRegistry(session.Config{
		Auth:     be,
		Profiles: profile.NewFetcher(be, logger),
		Logger:   logger,
	}, opts.ClientIdleTTL)

	handler, err := newRouter(opts, be, clients, logger)
	if err != nil {
		clients.Close()
		return nil, err
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	go clients.Run(sweepCtx, sweepInterval(opts.ClientIdleTTL))

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, clients: clients, sweepers: cancel, logger: logger}, nil
}

// Handler exposes the routed handler.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes every portal client.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.inner.Shutdown(ctx)
	s.Close()
	return err
}

// Close stops the sweeper and closes every portal client without touching
// the listener.
func (s *Server) Close() {
	s.sweepers()
	s.clients.Close()
}

func newRouter(opts Options, be *backend.Local, clients *session.Registry, logger *zap.Logger) (http.Handler, error) {
	cookies := middleware.Cookies{Secure: opts.CookieSecure}
	pages := handlers.NewPagesHandler(cookies)
	authHandler := handlers.NewAuthHandler(cookies, logger)
	admin := handlers.NewAdminHandler(users.NewPanel(be, opts.Objects, logger), be, cookies, logger)

	reviews := map[string]*handlers.RequestsHandler{}
	for path, kind := range map[string]models.RequestKind{
		routes.DepositRequests:    models.KindDeposit,
		routes.WithdrawalRequests: models.KindWithdrawal,
		routes.SendingRequests:    models.KindSending,
	} {
		panel, err := review.NewPanel(kind, be, logger)
		if err != nil {
			return nil, err
		}
		reviews[path] = handlers.NewRequestsHandler(panel, cookies)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.CORSOrigins))

	handlers.NewHealthHandler(time.Now()).Register(r)
	if opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(opts.Registry))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Clients(clients, cookies))
		r.NotFound(pages.NotFound)

		r.Get(routes.Home, pages.Home)
		r.Get(routes.Pending, pages.Pending)
		r.Get(routes.Rejected, pages.Rejected)
		authHandler.Register(r, middleware.RequireClient(clients, cookies))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Guard(guard.Options{}, opts.SessionInitWait, cookies))
			r.Get(routes.Dashboard, pages.Dashboard)
			for _, stub := range []string{"/deposit", "/send", "/withdraw"} {
				r.Get(routes.Dashboard+stub, pages.NotFound)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Guard(guard.Options{RequireAdmin: true}, opts.SessionInitWait, cookies))
			r.Get(routes.Admin, admin.Overview)
			r.Get(routes.Users, admin.Users)
			r.Get(routes.Users+"/{id}", admin.User)
			r.Post(routes.Users+"/{id}/approve", admin.ApproveUser)
			r.Post(routes.Users+"/{id}/reject", admin.RejectUser)
			for path, h := range reviews {
				r.Get(path, h.List)
				r.Post(path+"/{id}/approve", h.Approve)
				r.Post(path+"/{id}/reject", h.Reject)
			}
			r.Get(routes.Admin+"/banks", pages.NotFound)
		})
	})

	return r, nil
}

func sweepInterval(ttl time.Duration) time.Duration {
	if every := ttl / 4; every > time.Second {
		return every
	}
	return time.Second
}
