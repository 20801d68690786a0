// Package review implements the admin panels for deposit, withdrawal and
// sending requests.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/metrics"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

// ErrReasonRequired is returned by Reject for a blank reason.
var ErrReasonRequired = errors.New("a rejection reason is required")

// Row is one table line of a review panel. Actionable rows offer approve
// and reject.
type Row struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"user_id"`
	Amount          string        `json:"amount"`
	Status          models.Status `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Actionable      bool          `json:"actionable"`

	ProofURL           string                     `json:"proof_url,omitempty"`
	TransactionDetails *models.TransactionDetails `json:"transaction_details,omitempty"`
	RecipientID        *uuid.UUID                 `json:"recipient_id,omitempty"`
}

// Panel lists and decides the requests of one kind.
type Panel struct {
	kind   models.RequestKind
	store  storage.RequestStore
	logger *zap.Logger
}

// NewPanel builds the panel for kind.
func NewPanel(kind models.RequestKind, store storage.RequestStore, logger *zap.Logger) (*Panel, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown request kind %q", kind)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Panel{kind: kind, store: store, logger: logger.With(zap.String("panel", kind.Table()))}, nil
}

// Kind returns the request kind the panel reviews.
func (p *Panel) Kind() models.RequestKind { return p.kind }

// Title is the panel heading, e.g. "Withdrawal Requests".
func (p *Panel) Title() string {
	return label(p.kind) + " Requests"
}

// List returns all requests of the kind, newest first.
func (p *Panel) List(ctx context.Context) ([]Row, error) {
	reqs, err := p.store.ListRequests(ctx, p.kind)
	if err != nil {
		p.logger.Error("list requests", zap.Error(err))
		return nil, fmt.Errorf("list %s: %w", p.kind.Table(), err)
	}
	rows := make([]Row, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, Row{
			ID:                 r.ID,
			UserID:             r.UserID,
			Amount:             "$" + r.Amount.StringFixed(2),
			Status:             r.Status,
			CreatedAt:          r.CreatedAt,
			RejectionReason:    r.RejectionReason,
			Actionable:         r.Status == models.StatusPending,
			ProofURL:           r.ProofURL,
			TransactionDetails: r.TransactionDetails,
			RecipientID:        r.RecipientID,
		})
	}
	return rows, nil
}

// Approve marks a request approved. Transaction details are recorded for
// withdrawals and ignored for the other kinds.
func (p *Panel) Approve(ctx context.Context, id uuid.UUID, details models.TransactionDetails) error {
	update := storage.RequestUpdate{Status: models.StatusApproved}
	if p.kind == models.KindWithdrawal {
		update.TransactionDetails = &details
	}
	return p.decide(ctx, id, update)
}

// Reject marks a request rejected with a reason.
func (p *Panel) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	return p.decide(ctx, id, storage.RequestUpdate{Status: models.StatusRejected, RejectionReason: &reason})
}

func (p *Panel) decide(ctx context.Context, id uuid.UUID, update storage.RequestUpdate) error {
	if err := p.store.UpdateRequest(ctx, p.kind, id, update); err != nil {
		p.logger.Warn("review decision failed",
			zap.String("request_id", id.String()),
			zap.String("decision", string(update.Status)),
			zap.Error(err))
		return fmt.Errorf("update %s: %w", p.kind.Table(), err)
	}
	metrics.Reviews.WithLabelValues(p.kind.Table(), string(update.Status)).Inc()
	p.logger.Info("request reviewed", zap.String("request_id", id.String()), zap.String("decision", string(update.Status)))
	return nil
}

// Notice reports the outcome of a decision the way the panel toasts it.
func (p *Panel) Notice(decision models.Status, err error) session.Notice {
	if err != nil {
		msg := "Something went wrong. Please try again."
		switch {
		case errors.Is(err, ErrReasonRequired):
			msg = "A rejection reason is required"
		case errors.Is(err, storage.ErrNotFound):
			msg = label(p.kind) + " request not found"
		}
		return session.Notice{Variant: session.VariantDestructive, Title: "Error", Description: msg}
	}
	return session.Notice{
		Variant:     session.VariantDefault,
		Title:       "Success",
		Description: fmt.Sprintf("%s request %s successfully", label(p.kind), decision),
	}
}

func label(kind models.RequestKind) string {
	s := string(kind)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
