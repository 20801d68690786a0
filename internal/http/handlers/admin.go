package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/http/respond"
	"github.com/Lazitesema/cashora-landing-haven/internal/middleware"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/models/dto"
	"github.com/Lazitesema/cashora-landing-haven/internal/review"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
	"github.com/Lazitesema/cashora-landing-haven/internal/users"
)

// AdminHandler serves the admin overview and the user management panel.
type AdminHandler struct {
	viewer
	panel   *users.Panel
	counter users.Counter
	logger  *zap.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(panel *users.Panel, counter users.Counter, cookies middleware.Cookies, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{viewer: viewer{cookies: cookies}, panel: panel, counter: counter, logger: logger}
}

// Overview shows user and pending request counts.
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := users.LoadOverview(r.Context(), h.counter)
	if err != nil {
		h.logger.Error("load admin overview", zap.Error(err))
		h.render(w, r, http.StatusInternalServerError, "Failed to load overview", nil)
		return
	}
	h.render(w, r, http.StatusOK, "Admin", o)
}

// Users lists every profile.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	rows, err := h.panel.List(r.Context())
	if err != nil {
		h.render(w, r, http.StatusInternalServerError, "Failed to load users", nil)
		return
	}
	h.render(w, r, http.StatusOK, "Users", rows)
}

// User is the user details dialog.
func (h *AdminHandler) User(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	d, err := h.panel.Get(r.Context(), id)
	if err != nil {
		h.render(w, r, statusFor(err), "User not found", nil)
		return
	}
	h.render(w, r, http.StatusOK, "User Details", d)
}

// ApproveUser marks a pending account approved.
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusApproved)
}

// RejectUser marks a pending account rejected.
func (h *AdminHandler) RejectUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusRejected)
}

func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request, status models.Status) {
	client, ok := mustClient(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if status == models.StatusApproved {
		err = h.panel.Approve(r.Context(), id)
	} else {
		err = h.panel.Reject(r.Context(), id)
	}
	client.Mailbox.Notify(users.Notice(status, err))
	if err != nil {
		h.render(w, r, statusFor(err), "Status update failed", nil)
		return
	}
	h.Users(w, r)
}

// RequestsHandler serves one admin request review panel.
type RequestsHandler struct {
	viewer
	panel *review.Panel
}

// NewRequestsHandler constructs the handler.
func NewRequestsHandler(panel *review.Panel, cookies middleware.Cookies) *RequestsHandler {
	return &RequestsHandler{viewer: viewer{cookies: cookies}, panel: panel}
}

// List shows the panel's requests, newest first.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.panel.List(r.Context())
	if err != nil {
		h.render(w, r, http.StatusInternalServerError, "Failed to load "+h.panel.Title(), nil)
		return
	}
	h.render(w, r, http.StatusOK, h.panel.Title(), rows)
}

// Approve approves a request. Withdrawals accept transaction details.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	client, ok := mustClient(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request id")
		return
	}
	var req dto.ApproveRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	err = h.panel.Approve(r.Context(), id, req.TransactionDetails)
	h.finish(w, r, client.Mailbox, models.StatusApproved, err)
}

// Reject rejects a request with a mandatory reason.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	client, ok := mustClient(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request id")
		return
	}
	var req dto.RejectRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	err = h.panel.Reject(r.Context(), id, req.Reason)
	h.finish(w, r, client.Mailbox, models.StatusRejected, err)
}

func (h *RequestsHandler) finish(w http.ResponseWriter, r *http.Request, notifier session.Notifier, decision models.Status, err error) {
	notifier.Notify(h.panel.Notice(decision, err))
	if err != nil {
		h.render(w, r, statusFor(err), "Review failed", nil)
		return
	}
	h.List(w, r)
}
