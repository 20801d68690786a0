package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
)

const (
	// ClientCookie addresses the browser's portal client.
	ClientCookie = "cashora_client"
	// TokenCookie persists the backend access token across portal clients.
	TokenCookie = "cashora_token"
)

type clientKey struct{}

// Cookies writes the portal cookies.
type Cookies struct {
	Secure bool
}

// SetClient binds the browser to a portal client.
func (c Cookies) SetClient(w http.ResponseWriter, id string) {
	http.SetCookie(w, c.cookie(ClientCookie, id, 0))
}

// SyncToken stores the access token of a live session or clears a stale one.
func (c Cookies) SyncToken(w http.ResponseWriter, r *http.Request, s *models.Session) {
	if s != nil {
		maxAge := int(time.Until(s.ExpiresAt).Seconds())
		if maxAge > 0 {
			if current, err := r.Cookie(TokenCookie); err == nil && current.Value == s.AccessToken {
				return
			}
			http.SetCookie(w, c.cookie(TokenCookie, s.AccessToken, maxAge))
			return
		}
	}
	if _, err := r.Cookie(TokenCookie); err == nil {
		http.SetCookie(w, c.cookie(TokenCookie, "", -1))
	}
}

func (c Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Clients resumes the portal client of every request. A browser without a
// live client gets a new one only when it carries a token cookie to
// restore; anonymous traffic runs without a client until RequireClient.
func Clients(registry *session.Registry, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := lookupClient(registry, r)
			if client == nil {
				if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
					client = registry.Open(c.Value)
					cookies.SetClient(w, client.ID)
				}
			}
			if client != nil {
				r = r.WithContext(WithClient(r.Context(), client))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireClient opens a portal client for routes that act on one, such as
// sign-in and sign-up, when Clients left the request without a client.
func RequireClient(registry *session.Registry, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ClientFrom(r.Context()); !ok {
				client := registry.Open("")
				cookies.SetClient(w, client.ID)
				r = r.WithContext(WithClient(r.Context(), client))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func lookupClient(registry *session.Registry, r *http.Request) *session.Client {
	c, err := r.Cookie(ClientCookie)
	if err != nil {
		return nil
	}
	client, _ := registry.Lookup(c.Value)
	return client
}

// WithClient attaches a portal client to ctx.
func WithClient(ctx context.Context, c *session.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFrom returns the portal client of the request.
func ClientFrom(ctx context.Context) (*session.Client, bool) {
	c, ok := ctx.Value(clientKey{}).(*session.Client)
	return c, ok
}
