package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/http/respond"
	"github.com/Lazitesema/cashora-landing-haven/internal/middleware"
	"github.com/Lazitesema/cashora-landing-haven/internal/models/dto"
	"github.com/Lazitesema/cashora-landing-haven/internal/review"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

const maxBodyBytes = 1 << 20

// viewer renders portal views: it drains the client's mailbox into the
// envelope and keeps the token cookie in step with the session.
type viewer struct {
	cookies middleware.Cookies
}

func (v viewer) render(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	client, ok := middleware.ClientFrom(r.Context())
	if !ok {
		respond.JSON(w, status, message, data)
		return
	}
	redirect, notices := client.Mailbox.Drain()
	v.cookies.SyncToken(w, r, client.Sync.State().Session)
	respond.View(w, status, message, data, redirect, notices)
}

func mustClient(w http.ResponseWriter, r *http.Request) (*session.Client, bool) {
	client, ok := middleware.ClientFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "portal client missing")
	}
	return client, ok
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// statusFor maps a domain error to the HTTP status of the view that reports it.
func statusFor(err error) int {
	var invalid dto.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &invalid), errors.Is(err, review.ErrReasonRequired):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrAccountPending),
		errors.Is(err, session.ErrAccountRejected),
		errors.Is(err, session.ErrProfileNotFound):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrUserExists), errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
