package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/metrics"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/models/dto"
	"github.com/Lazitesema/cashora-landing-haven/internal/routes"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrAccountPending  = errors.New("your account is pending approval")
	ErrAccountRejected = errors.New("your account has been rejected")
	// ErrSuperseded is returned when a newer operation replaced this one's result.
	ErrSuperseded = errors.New("superseded by a newer session change")
)

const revokeTimeout = 5 * time.Second

// AuthClient is the backend auth surface the synchronizer drives.
type AuthClient interface {
	SignUp(ctx context.Context, email, password string, meta models.SignUpMetadata) (models.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetSession(ctx context.Context, accessToken string) (models.Session, error)
	RefreshSession(ctx context.Context, accessToken string) (models.Session, error)
	Subscribe() *backend.Subscription
}

// ProfileFetcher loads a profile; nil means missing or unreadable.
type ProfileFetcher interface {
	Fetch(ctx context.Context, userID uuid.UUID, withLimits bool) *models.Profile
}

// Config wires a Synchronizer.
type Config struct {
	Auth      AuthClient
	Profiles  ProfileFetcher
	Navigator Navigator
	Notifier  Notifier
	Logger    *zap.Logger

	// AccessToken is the stored credential used to restore a session on Start.
	AccessToken string
	// RefreshMargin triggers a token refresh when the session expires within it.
	RefreshMargin time.Duration
	// RefreshEvery is how often the margin is checked.
	RefreshEvery time.Duration
}

// Synchronizer mirrors backend session and profile state for one portal
// client and enforces account-status gating.
//
// Every fetch runs under its own cancellable context and generation number.
// Operations that read and replace the state are serialized. A user action
// interrupts the background fetch in flight and runs next, so session
// restores and auth events can never cancel a sign-in or sign-out.
type Synchronizer struct {
	auth     AuthClient
	profiles ProfileFetcher
	nav      Navigator
	notify   Notifier
	logger   *zap.Logger
	now      func() time.Time

	token         string
	refreshMargin time.Duration
	refreshEvery  time.Duration

	// opMu serializes fetch-and-apply operations; mu guards the fields below.
	opMu        sync.Mutex
	mu          sync.Mutex
	state       State
	gen         uint64
	cancelFetch context.CancelFunc

	ready     chan struct{}
	readyOnce sync.Once

	startOnce sync.Once
	closeOnce sync.Once
	cancelRun context.CancelFunc
	sub       *backend.Subscription
	done      chan struct{}
}

// New builds a synchronizer in the initializing phase. Call Start to run it
// and Close to tear it down.
func New(cfg Config) *Synchronizer {
	s := &Synchronizer{
		auth:          cfg.Auth,
		profiles:      cfg.Profiles,
		nav:           cfg.Navigator,
		notify:        cfg.Notifier,
		logger:        cfg.Logger,
		now:           time.Now,
		token:         cfg.AccessToken,
		refreshMargin: cfg.RefreshMargin,
		refreshEvery:  cfg.RefreshEvery,
		state:         State{Phase: PhaseInitializing},
		ready:         make(chan struct{}),
		done:          make(chan struct{}),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.nav == nil || s.notify == nil {
		mb := NewMailbox()
		if s.nav == nil {
			s.nav = mb
		}
		if s.notify == nil {
			s.notify = mb
		}
	}
	if s.refreshMargin <= 0 {
		s.refreshMargin = time.Minute
	}
	if s.refreshEvery <= 0 {
		s.refreshEvery = 15 * time.Second
	}
	return s
}

// State returns the current snapshot.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready is closed once the synchronizer leaves the initializing phase.
func (s *Synchronizer) Ready() <-chan struct{} {
	return s.ready
}

// Start subscribes to auth-state events and restores the session in the
// background. ctx bounds the synchronizer's lifetime.
func (s *Synchronizer) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cancelRun = cancel
		s.sub = s.auth.Subscribe()
		s.mu.Unlock()
		go s.run(runCtx, s.sub)
	})
}

// Close stops the event loop, cancels any in-flight fetch and unsubscribes.
func (s *Synchronizer) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.cancelFetch != nil {
			s.cancelFetch()
		}
		cancelRun, sub := s.cancelRun, s.sub
		s.mu.Unlock()

		if cancelRun == nil {
			return
		}
		cancelRun()
		<-s.done
		sub.Unsubscribe()
	})
}

func (s *Synchronizer) run(ctx context.Context, sub *backend.Subscription) {
	defer close(s.done)
	s.initialize(ctx)

	ticker := time.NewTicker(s.refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, e)
		case <-sub.Lagged():
			s.resync(ctx)
		case <-ticker.C:
			s.refreshIfExpiring(ctx)
		}
	}
}

// initialize restores the session behind the stored token. A user action
// that already settled the state wins over the restore.
func (s *Synchronizer) initialize(parent context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if !s.State().Loading() {
		return
	}

	ctx, gen := s.beginFetch(parent)
	if strings.TrimSpace(s.token) == "" {
		s.apply(gen, State{Phase: PhaseUnauthenticated})
		return
	}
	session, err := s.auth.GetSession(ctx, s.token)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if !errors.Is(err, backend.ErrSessionNotFound) {
			s.logger.Error("error initializing auth", zap.Error(err))
		}
		s.apply(gen, State{Phase: PhaseUnauthenticated})
		return
	}
	s.resolve(ctx, gen, &session)
}

func (s *Synchronizer) handleEvent(ctx context.Context, e backend.Event) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	current := s.State().Session
	if current == nil {
		return
	}
	switch {
	case e.Type == backend.EventUserUpdated:
		if e.UserID == current.UserID {
			s.syncLocked(ctx, current)
		}
	case e.SessionID != current.ID:
		return
	case e.Type == backend.EventSignedOut:
		s.syncLocked(ctx, nil)
	default:
		next := current
		if e.Session != nil {
			next = e.Session
		}
		s.syncLocked(ctx, next)
	}
}

// resync re-reads the current session and profile after events were
// dropped, so a missed sign-out or status change is still applied.
func (s *Synchronizer) resync(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	current := s.State().Session
	if current == nil {
		return
	}
	session, err := s.auth.GetSession(ctx, current.AccessToken)
	switch {
	case errors.Is(err, backend.ErrSessionNotFound):
		s.syncLocked(ctx, nil)
	case err != nil:
		s.logger.Warn("session resync failed", zap.String("session_id", current.ID), zap.Error(err))
		s.syncLocked(ctx, current)
	default:
		s.syncLocked(ctx, &session)
	}
}

func (s *Synchronizer) refreshIfExpiring(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	current := s.State().Session
	if current == nil || !current.ExpiresWithin(s.now(), s.refreshMargin) {
		return
	}
	refreshed, err := s.auth.RefreshSession(ctx, current.AccessToken)
	if err != nil {
		s.logger.Warn("session refresh failed", zap.String("session_id", current.ID), zap.Error(err))
		if errors.Is(err, backend.ErrSessionNotFound) {
			s.syncLocked(ctx, nil)
		}
		return
	}
	// The TOKEN_REFRESHED event re-runs the profile sync; swap the token now
	// so the next tick never presents the superseded one.
	s.mu.Lock()
	if s.state.Session != nil && s.state.Session.ID == refreshed.ID {
		next := s.state
		next.Session = &refreshed
		s.state = next
	}
	s.mu.Unlock()
}

// syncLocked is the shared fetch-and-gate step run on start and on every
// relevant auth event. The caller holds opMu.
func (s *Synchronizer) syncLocked(parent context.Context, session *models.Session) {
	ctx, gen := s.beginFetch(parent)
	if session == nil {
		s.apply(gen, State{Phase: PhaseUnauthenticated})
		return
	}
	s.resolve(ctx, gen, session)
}

func (s *Synchronizer) resolve(ctx context.Context, gen uint64, session *models.Session) {
	p := s.profiles.Fetch(ctx, session.UserID, true)
	if ctx.Err() != nil {
		return
	}
	if p != nil && p.Status.Gated() {
		if !s.apply(gen, State{Phase: PhaseGated, Session: session, Profile: p}) {
			return
		}
		s.gate(ctx, gen, session, p)
		return
	}
	s.apply(gen, State{Phase: PhaseAuthenticated, Session: session, Profile: p})
}

// gate signs a non-approved account out. If the backend sign-out fails the
// state stays gated, which routes the client to the status page.
func (s *Synchronizer) gate(ctx context.Context, gen uint64, session *models.Session, p *models.Profile) {
	metrics.GatedSessions.WithLabelValues(string(p.Status)).Inc()
	if err := s.auth.SignOut(ctx, session.AccessToken); err != nil && !errors.Is(err, backend.ErrSessionNotFound) {
		s.logger.Warn("gated sign-out failed",
			zap.String("user_id", session.UserID.String()),
			zap.String("status", string(p.Status)),
			zap.Error(err))
		return
	}
	if s.apply(gen, State{Phase: PhaseUnauthenticated}) {
		s.nav.Navigate(routes.SignIn)
	}
}

// SignIn checks credentials, loads the profile, gates non-approved accounts
// and navigates by role. Failures leave the caller on the sign-in view with
// an error notice.
func (s *Synchronizer) SignIn(ctx context.Context, email, password string) error {
	s.interrupt()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	ctx, gen := s.beginFetch(ctx)

	session, err := s.auth.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.settleInitializing(gen)
		return s.signInFailed("credentials", err)
	}

	p := s.profiles.Fetch(ctx, session.UserID, true)
	if ctx.Err() != nil {
		return s.abandon(ctx, gen, session)
	}
	switch {
	case p == nil:
		s.revoke(ctx, gen, session)
		return s.signInFailed("no_profile", ErrProfileNotFound)
	case p.Status == models.StatusPending:
		metrics.GatedSessions.WithLabelValues(string(p.Status)).Inc()
		s.revoke(ctx, gen, session)
		return s.signInFailed("pending", ErrAccountPending)
	case p.Status == models.StatusRejected:
		metrics.GatedSessions.WithLabelValues(string(p.Status)).Inc()
		s.revoke(ctx, gen, session)
		return s.signInFailed("rejected", ErrAccountRejected)
	}

	if !s.apply(gen, State{Phase: PhaseAuthenticated, Session: &session, Profile: p}) {
		return s.abandon(ctx, gen, session)
	}
	metrics.SignIns.WithLabelValues("success").Inc()
	if p.IsAdmin() {
		s.nav.Navigate(routes.Admin)
	} else {
		s.nav.Navigate(routes.Dashboard)
	}
	s.notify.Notify(Notice{
		Variant:     VariantDefault,
		Title:       "Welcome back!",
		Description: "You have successfully signed in.",
	})
	return nil
}

// SignUp registers a new pending account and navigates to sign-in. Forms
// that fail validation never reach the backend and stay on the sign-up view.
func (s *Synchronizer) SignUp(ctx context.Context, form dto.SignUpForm) error {
	form.Normalize()
	if err := form.Validate(); err != nil {
		s.notifyError(err)
		return err
	}

	_, err := s.auth.SignUp(ctx, form.Email, form.Password, form.Metadata())
	if err != nil {
		s.logger.Info("sign up failed", zap.Error(err))
		s.notifyError(err)
	} else {
		s.notify.Notify(Notice{
			Variant:     VariantDefault,
			Title:       "Registration successful!",
			Description: "Your account has been created and is pending admin approval.",
		})
	}
	s.nav.Navigate(routes.SignIn)
	return err
}

// SignOut ends the backend session, clears local state and navigates to sign-in.
func (s *Synchronizer) SignOut(ctx context.Context) error {
	s.interrupt()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	ctx, gen := s.beginFetch(ctx)
	if current := s.State().Session; current != nil {
		err := s.auth.SignOut(ctx, current.AccessToken)
		if err != nil && !errors.Is(err, backend.ErrSessionNotFound) {
			s.logger.Error("sign out failed", zap.Error(err))
			s.notifyError(err)
			return err
		}
	}
	s.apply(gen, State{Phase: PhaseUnauthenticated})
	s.nav.Navigate(routes.SignIn)
	s.notify.Notify(Notice{
		Variant:     VariantDefault,
		Title:       "Signed out",
		Description: "You have been successfully signed out.",
	})
	return nil
}

func (s *Synchronizer) revoke(ctx context.Context, gen uint64, session models.Session) {
	if err := s.auth.SignOut(ctx, session.AccessToken); err != nil && !errors.Is(err, backend.ErrSessionNotFound) {
		s.logger.Warn("sign out after rejected sign-in failed", zap.String("user_id", session.UserID.String()), zap.Error(err))
	}
	s.apply(gen, State{Phase: PhaseUnauthenticated})
}

// abandon revokes a session created by a sign-in that was interrupted before
// it could be applied.
func (s *Synchronizer) abandon(ctx context.Context, gen uint64, session models.Session) error {
	revokeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
	defer cancel()
	if err := s.auth.SignOut(revokeCtx, session.AccessToken); err != nil && !errors.Is(err, backend.ErrSessionNotFound) {
		s.logger.Warn("sign out after interrupted sign-in failed", zap.String("user_id", session.UserID.String()), zap.Error(err))
	}
	s.settleInitializing(gen)
	return s.signInFailed("interrupted", ErrSuperseded)
}

// settleInitializing leaves the initializing phase when a failed sign-in
// superseded the initial session lookup.
func (s *Synchronizer) settleInitializing(gen uint64) {
	if s.State().Loading() {
		s.apply(gen, State{Phase: PhaseUnauthenticated})
	}
}

func (s *Synchronizer) signInFailed(outcome string, err error) error {
	metrics.SignIns.WithLabelValues(outcome).Inc()
	s.notifyError(err)
	return err
}

func (s *Synchronizer) notifyError(err error) {
	s.notify.Notify(Notice{
		Variant:     VariantDestructive,
		Title:       "Error",
		Description: userMessage(err),
	})
}

// interrupt cancels the fetch in flight so a user action waiting on opMu
// runs next.
func (s *Synchronizer) interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
}

func (s *Synchronizer) beginFetch(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancelFetch = cancel
	return ctx, s.gen
}

// apply publishes st if gen is still the latest fetch.
func (s *Synchronizer) apply(gen uint64, st State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.state = st
	if st.Phase != PhaseInitializing {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	return true
}

func userMessage(err error) string {
	var invalid dto.ValidationError
	switch {
	case errors.As(err, &invalid):
		return capitalize(string(invalid))
	case errors.Is(err, backend.ErrInvalidCredentials),
		errors.Is(err, backend.ErrUserExists),
		errors.Is(err, ErrProfileNotFound),
		errors.Is(err, ErrAccountPending),
		errors.Is(err, ErrAccountRejected):
		return capitalize(err.Error())
	case errors.Is(err, ErrSuperseded),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return "The request was interrupted. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
