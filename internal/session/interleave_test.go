package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/profile"
	"github.com/Lazitesema/cashora-landing-haven/internal/routes"
)

// slowAuth adds store-like latency to session lookups and bcrypt-like
// latency to password sign-ins.
type slowAuth struct {
	*backend.Local
	lookup time.Duration
	signIn time.Duration
}

func (a slowAuth) GetSession(ctx context.Context, token string) (models.Session, error) {
	time.Sleep(a.lookup)
	return a.Local.GetSession(ctx, token)
}

func (a slowAuth) SignInWithPassword(ctx context.Context, email, password string) (models.Session, error) {
	time.Sleep(a.signIn)
	return a.Local.SignInWithPassword(ctx, email, password)
}

func TestSignInWhileRestoringStaleToken(t *testing.T) {
	h := newHarness(t)
	h.register(t, "ada@example.com", models.StatusApproved, models.RoleUser)

	mb := NewMailbox()
	s := New(Config{
		Auth:        slowAuth{Local: h.backend, lookup: 20 * time.Millisecond, signIn: 100 * time.Millisecond},
		Profiles:    profile.NewFetcher(h.backend, nil),
		Navigator:   mb,
		Notifier:    mb,
		AccessToken: "stale-cookie-token",
	})
	s.Start(context.Background())
	t.Cleanup(s.Close)

	if err := s.SignIn(context.Background(), "ada@example.com", testPassword); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	redirect, notices := mb.Drain()
	if redirect != routes.Dashboard {
		t.Fatalf("redirect = %q, want %q", redirect, routes.Dashboard)
	}
	if len(notices) != 1 || notices[0].Title != "Welcome back!" {
		t.Fatalf("notices = %+v", notices)
	}

	// The restore of the stale token must not undo the sign-in.
	time.Sleep(60 * time.Millisecond)
	if st := s.State(); st.Phase != PhaseAuthenticated || st.Session == nil {
		t.Fatalf("phase = %v, want authenticated", st.Phase)
	}
}

// stallingFetcher blocks until the fetch context is done.
type stallingFetcher struct{}

func (stallingFetcher) Fetch(ctx context.Context, _ uuid.UUID, _ bool) *models.Profile {
	<-ctx.Done()
	return nil
}

func TestInterruptedSignInRevokesSession(t *testing.T) {
	h := newHarness(t)
	h.register(t, "ada@example.com", models.StatusApproved, models.RoleUser)

	mb := NewMailbox()
	s := New(Config{Auth: h.backend, Profiles: stallingFetcher{}, Navigator: mb, Notifier: mb})
	s.Start(context.Background())
	t.Cleanup(s.Close)
	waitReady(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.SignIn(ctx, "ada@example.com", testPassword); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("err = %v, want ErrSuperseded", err)
	}

	if n := h.sessions.Len(); n != 0 {
		t.Fatalf("%d backend sessions left behind", n)
	}
	if st := s.State(); st.Phase != PhaseUnauthenticated {
		t.Fatalf("phase = %v, want unauthenticated", st.Phase)
	}
	redirect, notices := mb.Drain()
	if redirect != "" {
		t.Fatalf("unexpected navigation to %q", redirect)
	}
	if len(notices) != 1 || notices[0].Description != "The request was interrupted. Please try again." {
		t.Fatalf("notices = %+v", notices)
	}
}

// heldFetcher pauses armed fetches after reading the profile until released.
type heldFetcher struct {
	inner   ProfileFetcher
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (f *heldFetcher) Fetch(ctx context.Context, userID uuid.UUID, withLimits bool) *models.Profile {
	p := f.inner.Fetch(ctx, userID, withLimits)
	if f.armed.CompareAndSwap(true, false) {
		close(f.entered)
		<-f.release
	}
	return p
}

func TestRejectionSurvivesDroppedEvents(t *testing.T) {
	h := newHarness(t)
	ada := h.register(t, "ada@example.com", models.StatusApproved, models.RoleUser)
	h.register(t, "bob@example.com", models.StatusApproved, models.RoleUser)
	session, err := h.backend.SignInWithPassword(context.Background(), "ada@example.com", testPassword)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	fetcher := &heldFetcher{
		inner:   profile.NewFetcher(h.backend, nil),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	mb := NewMailbox()
	s := New(Config{Auth: h.backend, Profiles: fetcher, Navigator: mb, Notifier: mb, AccessToken: session.AccessToken})
	s.Start(context.Background())
	t.Cleanup(s.Close)
	waitReady(t, s)

	// Stall ada's next profile sync after it has read the approved profile.
	fetcher.armed.Store(true)
	if err := h.backend.UpdateProfileStatus(context.Background(), ada, models.StatusApproved); err != nil {
		t.Fatalf("touch profile: %v", err)
	}
	select {
	case <-fetcher.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("profile sync never started")
	}

	// Unrelated traffic overflows the subscriber buffer before the rejection.
	for i := 0; i < 20; i++ {
		if _, err := h.backend.SignInWithPassword(context.Background(), "bob@example.com", testPassword); err != nil {
			t.Fatalf("bob sign in %d: %v", i, err)
		}
	}
	if err := h.backend.UpdateProfileStatus(context.Background(), ada, models.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	close(fetcher.release)

	waitFor(t, "rejected session to be signed out", func() bool {
		return s.State().Phase == PhaseUnauthenticated
	})
	if redirect, _ := mb.Drain(); redirect != routes.SignIn {
		t.Fatalf("redirect = %q, want %q", redirect, routes.SignIn)
	}
}
