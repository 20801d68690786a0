package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lazitesema/cashora-landing-haven/internal/auth"
	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/middleware"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage/memory"
)

const password = "correct-horse"

type envelope struct {
	Code     int              `json:"code"`
	Message  string           `json:"message"`
	Data     json.RawMessage  `json:"data"`
	Redirect string           `json:"redirect"`
	Notices  []session.Notice `json:"notices"`
}

type portal struct {
	t       *testing.T
	url     string
	store   *memory.Store
	backend *backend.Local
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", "cashora", time.Hour)
	be := backend.NewLocal(store, memory.NewSessionStore(), tokens, nil, backend.WithHashCost(bcrypt.MinCost))
	objects, err := backend.NewObjects("https://files.example.com")
	if err != nil {
		t.Fatalf("objects: %v", err)
	}

	srv, err := New(Options{
		CORSOrigins:     []string{"*"},
		SessionInitWait: 2 * time.Second,
		ClientIdleTTL:   time.Minute,
		Objects:         objects,
	}, be, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &portal{t: t, url: ts.URL, store: store, backend: be}
}

func (p *portal) account(email string, status models.Status, role models.Role) uuid.UUID {
	p.t.Helper()
	identity, err := p.backend.SignUp(context.Background(), email, password, models.SignUpMetadata{
		FirstName: "Test",
		LastName:  "Account",
		Username:  email,
	})
	if err != nil {
		p.t.Fatalf("sign up: %v", err)
	}
	ctx := context.Background()
	if err := p.store.UpdateProfileStatus(ctx, identity.ID, status); err != nil {
		p.t.Fatalf("status: %v", err)
	}
	if err := p.store.UpdateProfileRole(ctx, identity.ID, role); err != nil {
		p.t.Fatalf("role: %v", err)
	}
	return identity.ID
}

// browser returns a client that keeps cookies and does not follow redirects.
func (p *portal) browser() *http.Client {
	p.t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		p.t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (p *portal) do(c *http.Client, method, path string, body any) (*http.Response, envelope) {
	p.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			p.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, p.url+path, &buf)
	if err != nil {
		p.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		p.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		p.t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return resp, env
}

func (p *portal) signIn(c *http.Client, email string) envelope {
	p.t.Helper()
	resp, env := p.do(c, http.MethodPost, "/signin", map[string]string{"email": email, "password": password})
	if resp.StatusCode != http.StatusSeeOther {
		p.t.Fatalf("sign in %s: status %d notices %+v", email, resp.StatusCode, env.Notices)
	}
	return env
}

func expectRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != want {
		t.Fatalf("location = %q, want %q", got, want)
	}
}

func TestHealth(t *testing.T) {
	p := newPortal(t)
	resp, env := p.do(http.DefaultClient, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK || env.Message != "ok" {
		t.Fatalf("health = %d %+v", resp.StatusCode, env)
	}
}

func TestHomeAndNotFound(t *testing.T) {
	p := newPortal(t)
	c := p.browser()

	resp, env := p.do(c, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("home status = %d", resp.StatusCode)
	}
	var home struct {
		Badge    string `json:"badge"`
		Features []struct {
			Name string `json:"name"`
		} `json:"features"`
	}
	if err := json.Unmarshal(env.Data, &home); err != nil {
		t.Fatalf("decode home: %v", err)
	}
	if home.Badge != "Transform Your Financial Services" || len(home.Features) != 4 {
		t.Fatalf("home = %+v", home)
	}

	if resp, _ := p.do(c, http.MethodGet, "/nowhere", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("catch-all status = %d, want 404", resp.StatusCode)
	}
}

func TestGuardRedirectsSignedOutClient(t *testing.T) {
	p := newPortal(t)
	c := p.browser()

	resp, _ := p.do(c, http.MethodGet, "/dashboard", nil)
	expectRedirect(t, resp, "/signin?from=%2Fdashboard")

	resp, env := p.do(c, http.MethodGet, "/signin?from=%2Fdashboard", nil)
	if resp.StatusCode != http.StatusOK || !bytes.Contains(env.Data, []byte(`"from":"/dashboard"`)) {
		t.Fatalf("sign-in page = %d %s", resp.StatusCode, env.Data)
	}
}

func TestUserSignInFlow(t *testing.T) {
	p := newPortal(t)
	id := p.account("ada@example.com", models.StatusApproved, models.RoleUser)
	profile, err := p.store.GetProfile(context.Background(), id, false)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	profile.Balance = decimal.RequireFromString("99.9")
	p.store.PutProfile(profile)

	c := p.browser()
	env := p.signIn(c, "ada@example.com")
	if env.Redirect != "/dashboard" || len(env.Notices) != 1 || env.Notices[0].Title != "Welcome back!" {
		t.Fatalf("sign in envelope = %+v", env)
	}

	resp, env := p.do(c, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d", resp.StatusCode)
	}
	if !bytes.Contains(env.Data, []byte(`"balance":"$99.90"`)) {
		t.Fatalf("dashboard = %s", env.Data)
	}

	resp, _ = p.do(c, http.MethodGet, "/admin", nil)
	expectRedirect(t, resp, "/dashboard")

	if resp, _ := p.do(c, http.MethodGet, "/dashboard/deposit", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deposit stub status = %d, want 404", resp.StatusCode)
	}

	resp, env = p.do(c, http.MethodPost, "/signout", nil)
	expectRedirect(t, resp, "/signin")
	if len(env.Notices) != 1 || env.Notices[0].Title != "Signed out" {
		t.Fatalf("sign out notices = %+v", env.Notices)
	}
	resp, _ = p.do(c, http.MethodGet, "/dashboard", nil)
	expectRedirect(t, resp, "/signin?from=%2Fdashboard")
}

func TestPendingSignInStaysOnSignIn(t *testing.T) {
	p := newPortal(t)
	p.account("pat@example.com", models.StatusPending, models.RoleUser)
	c := p.browser()

	resp, env := p.do(c, http.MethodPost, "/signin", map[string]string{"email": "pat@example.com", "password": password})
	if resp.StatusCode != http.StatusForbidden || env.Redirect != "" {
		t.Fatalf("status = %d redirect = %q", resp.StatusCode, env.Redirect)
	}
	if len(env.Notices) != 1 || env.Notices[0].Description != "Your account is pending approval" {
		t.Fatalf("notices = %+v", env.Notices)
	}
}

func TestSignUpNavigatesToSignIn(t *testing.T) {
	p := newPortal(t)
	c := p.browser()

	form := map[string]string{
		"firstName": "Grace",
		"lastName":  "Hopper",
		"username":  "grace",
		"email":     "grace@example.com",
		"password":  password,
	}
	resp, env := p.do(c, http.MethodPost, "/signup", form)
	expectRedirect(t, resp, "/signin")
	if len(env.Notices) != 1 || env.Notices[0].Title != "Registration successful!" {
		t.Fatalf("notices = %+v", env.Notices)
	}

	form["password"] = "short"
	resp, env = p.do(c, http.MethodPost, "/signup", form)
	if resp.StatusCode != http.StatusBadRequest || env.Redirect != "" {
		t.Fatalf("invalid sign up = %d redirect %q", resp.StatusCode, env.Redirect)
	}
}

func TestTokenCookieRestoresSession(t *testing.T) {
	p := newPortal(t)
	p.account("ada@example.com", models.StatusApproved, models.RoleUser)
	c := p.browser()
	p.signIn(c, "ada@example.com")

	var token *http.Cookie
	req, _ := http.NewRequest(http.MethodGet, p.url, nil)
	for _, ck := range c.Jar.Cookies(req.URL) {
		if ck.Name == middleware.TokenCookie {
			token = ck
		}
	}
	if token == nil {
		t.Fatal("sign in did not set the token cookie")
	}

	// A fresh browser carrying only the token gets a new portal client.
	fresh := p.browser()
	fresh.Jar.SetCookies(req.URL, []*http.Cookie{{Name: middleware.TokenCookie, Value: token.Value}})
	resp, _ := p.do(fresh, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restored dashboard status = %d", resp.StatusCode)
	}
}

func TestAdminReviewsUsersAndRequests(t *testing.T) {
	p := newPortal(t)
	p.account("admin@example.com", models.StatusApproved, models.RoleAdmin)
	pending := p.account("pat@example.com", models.StatusPending, models.RoleUser)
	deposit, err := p.store.CreateRequest(context.Background(), models.Request{
		Kind:   models.KindDeposit,
		UserID: pending,
		Amount: decimal.NewFromInt(250),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	c := p.browser()
	if env := p.signIn(c, "admin@example.com"); env.Redirect != "/admin" {
		t.Fatalf("admin redirect = %q", env.Redirect)
	}

	resp, env := p.do(c, http.MethodGet, "/admin", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview status = %d", resp.StatusCode)
	}
	var overview struct {
		TotalUsers      int `json:"total_users"`
		PendingRequests int `json:"pending_requests"`
	}
	if err := json.Unmarshal(env.Data, &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if overview.TotalUsers != 2 || overview.PendingRequests != 1 {
		t.Fatalf("overview = %+v", overview)
	}

	resp, env = p.do(c, http.MethodPost, "/admin/users/"+pending.String()+"/approve", nil)
	if resp.StatusCode != http.StatusOK || len(env.Notices) != 1 || env.Notices[0].Description != "User status updated to approved" {
		t.Fatalf("approve user = %d %+v", resp.StatusCode, env.Notices)
	}

	resp, env = p.do(c, http.MethodGet, "/admin/users/"+pending.String(), nil)
	if resp.StatusCode != http.StatusOK || !bytes.Contains(env.Data, []byte(`"status":"approved"`)) {
		t.Fatalf("user detail = %d %s", resp.StatusCode, env.Data)
	}
	if resp, _ := p.do(c, http.MethodGet, "/admin/users/not-a-uuid", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", resp.StatusCode)
	}

	rejectPath := "/admin/deposit-requests/" + deposit.ID.String() + "/reject"
	resp, env = p.do(c, http.MethodPost, rejectPath, map[string]string{"rejection_reason": ""})
	if resp.StatusCode != http.StatusBadRequest || len(env.Notices) != 1 || env.Notices[0].Variant != session.VariantDestructive {
		t.Fatalf("empty reason = %d %+v", resp.StatusCode, env.Notices)
	}
	resp, env = p.do(c, http.MethodPost, rejectPath, map[string]string{"rejection_reason": "proof missing"})
	if resp.StatusCode != http.StatusOK || env.Notices[0].Description != "Deposit request rejected successfully" {
		t.Fatalf("reject = %d %+v", resp.StatusCode, env.Notices)
	}
	if !bytes.Contains(env.Data, []byte(`"actionable":false`)) {
		t.Fatalf("rejected row still actionable: %s", env.Data)
	}

	withdrawal, err := p.store.CreateRequest(context.Background(), models.Request{
		Kind:   models.KindWithdrawal,
		UserID: pending,
		Amount: decimal.NewFromInt(40),
	})
	if err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	approvePath := "/admin/withdrawal-requests/" + withdrawal.ID.String() + "/approve"
	resp, env = p.do(c, http.MethodPost, approvePath, map[string]any{
		"transaction_details": map[string]string{"bank_name": "First Bank"},
	})
	if resp.StatusCode != http.StatusOK || env.Notices[0].Description != "Withdrawal request approved successfully" {
		t.Fatalf("approve = %d %+v", resp.StatusCode, env.Notices)
	}
	if !bytes.Contains(env.Data, []byte(`"actionable":false`)) || bytes.Contains(env.Data, []byte(`"actionable":true`)) {
		t.Fatalf("approved row still actionable: %s", env.Data)
	}

	if resp, _ := p.do(c, http.MethodGet, "/admin/banks", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("banks stub status = %d, want 404", resp.StatusCode)
	}
}

func TestRejectedUserIsSignedOutOnNextRequest(t *testing.T) {
	p := newPortal(t)
	id := p.account("ada@example.com", models.StatusApproved, models.RoleUser)
	c := p.browser()
	p.signIn(c, "ada@example.com")

	if err := p.backend.UpdateProfileStatus(context.Background(), id, models.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, _ := p.do(c, http.MethodGet, "/dashboard", nil)
		if resp.StatusCode == http.StatusSeeOther {
			if loc := resp.Header.Get("Location"); loc != "/signin?from=%2Fdashboard" {
				t.Fatalf("location = %q", loc)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("rejected session was never signed out")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
