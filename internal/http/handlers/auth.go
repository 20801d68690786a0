package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/http/respond"
	"github.com/Lazitesema/cashora-landing-haven/internal/middleware"
	"github.com/Lazitesema/cashora-landing-haven/internal/models/dto"
	"github.com/Lazitesema/cashora-landing-haven/internal/routes"
)

// AuthHandler owns the sign-in, sign-up and sign-out views. Each action runs
// on the caller's portal client synchronizer.
type AuthHandler struct {
	viewer
	logger *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(cookies middleware.Cookies, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{viewer: viewer{cookies: cookies}, logger: logger}
}

// Register attaches auth routes to the router. open wraps the actions that
// need a portal client of their own.
func (h *AuthHandler) Register(r chi.Router, open func(http.Handler) http.Handler) {
	r.Get(routes.SignIn, h.handleSignInPage)
	r.With(open).Post(routes.SignIn, h.handleSignIn)
	r.Get(routes.SignUp, h.handleSignUpPage)
	r.With(open).Post(routes.SignUp, h.handleSignUp)
	r.Post(routes.SignOut, h.handleSignOut)
}

type signInView struct {
	From      string `json:"from,omitempty"`
	SignUpURL string `json:"sign_up_url"`
}

type formField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

var signUpFields = []formField{
	{Name: "firstName", Label: "First Name", Type: "text", Required: true},
	{Name: "lastName", Label: "Last Name", Type: "text", Required: true},
	{Name: "username", Label: "Username", Type: "text", Required: true},
	{Name: "email", Label: "Email", Type: "email", Required: true},
	{Name: "password", Label: "Password", Type: "password", Required: true},
	{Name: "dateOfBirth", Label: "Date of Birth", Type: "date"},
	{Name: "placeOfBirth", Label: "Place of Birth", Type: "text"},
	{Name: "residence", Label: "Residence", Type: "text"},
	{Name: "nationality", Label: "Nationality", Type: "text"},
}

func (h *AuthHandler) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "Sign in", signInView{
		From:      r.URL.Query().Get("from"),
		SignUpURL: routes.SignUp,
	})
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	client, ok := mustClient(w, r)
	if !ok {
		return
	}
	var req dto.SignInRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := client.Sync.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.logger.Info("sign in rejected", zap.String("client_id", client.ID), zap.Error(err))
		h.render(w, r, statusFor(err), "Sign in failed", nil)
		return
	}
	h.render(w, r, http.StatusOK, "Signed in", nil)
}

func (h *AuthHandler) handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "Create an account", map[string]any{
		"fields":      signUpFields,
		"sign_in_url": routes.SignIn,
	})
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	client, ok := mustClient(w, r)
	if !ok {
		return
	}
	var form dto.SignUpForm
	if err := decodeJSON(w, r, &form, false); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := client.Sync.SignUp(r.Context(), form); err != nil {
		h.render(w, r, statusFor(err), "Sign up failed", nil)
		return
	}
	h.render(w, r, http.StatusOK, "Account created", nil)
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	client, ok := middleware.ClientFrom(r.Context())
	if !ok {
		// nothing to sign out
		h.cookies.SyncToken(w, r, nil)
		respond.View(w, http.StatusOK, "Signed out", nil, routes.SignIn, nil)
		return
	}
	if err := client.Sync.SignOut(r.Context()); err != nil {
		h.render(w, r, statusFor(err), "Sign out failed", nil)
		return
	}
	h.render(w, r, http.StatusOK, "Signed out", nil)
}
