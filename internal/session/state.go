package session

import "github.com/Lazitesema/cashora-landing-haven/internal/models"

// Phase is the synchronizer's position in its state machine.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseAuthenticated
	PhaseGated
	PhaseUnauthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseGated:
		return "gated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is a snapshot of what the synchronizer knows. Session and Profile
// are never mutated after being published; callers may keep the pointers.
type State struct {
	Phase   Phase
	Session *models.Session
	Profile *models.Profile
}

// Loading reports whether the initial session lookup is still running.
func (s State) Loading() bool {
	return s.Phase == PhaseInitializing
}

// SignedIn reports whether a backend session is held.
func (s State) SignedIn() bool {
	return s.Session != nil
}
