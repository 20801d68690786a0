package middleware

import (
	"net/http"
	"time"

	"github.com/Lazitesema/cashora-landing-haven/internal/guard"
	"github.com/Lazitesema/cashora-landing-haven/internal/http/respond"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
)

// Guard protects the wrapped views. It waits up to wait for the portal
// client to finish initializing, then applies guard.Evaluate. A client still
// initializing gets the loading placeholder, and a request without a client
// is treated as signed out.
func Guard(opts guard.Options, wait time.Duration, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := ClientFrom(r.Context())
			if !ok {
				signedOut := guard.Evaluate(session.State{Phase: session.PhaseUnauthenticated}, opts, r.URL.RequestURI())
				cookies.SyncToken(w, r, nil)
				respond.View(w, http.StatusOK, "Redirecting", nil, signedOut.Location, nil)
				return
			}

			timer := time.NewTimer(wait)
			select {
			case <-client.Sync.Ready():
			case <-timer.C:
			case <-r.Context().Done():
			}
			timer.Stop()

			st := client.Sync.State()
			decision := guard.Evaluate(st, opts, r.URL.RequestURI())
			switch decision.Outcome {
			case guard.Loading:
				_, notices := client.Mailbox.Drain()
				respond.View(w, http.StatusAccepted, "Loading", map[string]bool{"loading": true}, "", notices)
			case guard.Redirect:
				_, notices := client.Mailbox.Drain()
				cookies.SyncToken(w, r, st.Session)
				respond.View(w, http.StatusOK, "Redirecting", nil, decision.Location, notices)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
