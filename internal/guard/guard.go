// Package guard decides whether a portal client may see a protected view.
package guard

import (
	"net/url"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/routes"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
)

// Outcome is what the caller should do with the request.
type Outcome int

const (
	// Loading means the session is still initializing; render a placeholder.
	Loading Outcome = iota
	Redirect
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Options marks the protected view.
type Options struct {
	RequireAdmin bool
}

// Decision is the result of Evaluate. Location is set only for Redirect.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Evaluate applies the access rules in order: loading, signed out, admin
// only, pending, rejected. A signed-in client without a profile is treated as
// a non-admin user.
func Evaluate(st session.State, opts Options, requestedPath string) Decision {
	if st.Loading() {
		return Decision{Outcome: Loading}
	}
	if !st.SignedIn() {
		return redirect(SignInLocation(requestedPath))
	}

	p := st.Profile
	if opts.RequireAdmin && (p == nil || !p.IsAdmin()) {
		return redirect(routes.Dashboard)
	}
	if p != nil {
		switch p.Status {
		case models.StatusPending:
			return redirect(routes.Pending)
		case models.StatusRejected:
			return redirect(routes.Rejected)
		}
	}
	return Decision{Outcome: Allow}
}

// SignInLocation is the sign-in path remembering where the client was headed.
func SignInLocation(from string) string {
	if from == "" || from == routes.SignIn {
		return routes.SignIn
	}
	return routes.SignIn + "?" + url.Values{"from": {from}}.Encode()
}

func redirect(location string) Decision {
	return Decision{Outcome: Redirect, Location: location}
}
