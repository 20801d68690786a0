// Package users implements the admin user management panel and the admin
// overview counters.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/metrics"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/profile"
	"github.com/Lazitesema/cashora-landing-haven/internal/session"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

const birthDateLayout = "Jan 2, 2006"

// Store is the row access the panel needs. Pass the backend rather than the
// raw store so status changes reach live sessions.
type Store interface {
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID, withLimits bool) (models.Profile, error)
	UpdateProfileStatus(ctx context.Context, id uuid.UUID, status models.Status) error
}

// Row is one line of the users table.
type Row struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Username   string        `json:"username"`
	Role       models.Role   `json:"role"`
	Status     models.Status `json:"status"`
	Balance    string        `json:"balance"`
	Actionable bool          `json:"actionable"`
}

// Detail is the user details dialog.
type Detail struct {
	Row
	DateOfBirth   string             `json:"date_of_birth,omitempty"`
	PlaceOfBirth  string             `json:"place_of_birth,omitempty"`
	Residence     string             `json:"residence,omitempty"`
	Nationality   string             `json:"nationality,omitempty"`
	IDCardURL     string             `json:"id_card_url,omitempty"`
	WithdrawalFee models.Fee         `json:"withdrawal_fee"`
	SendingFee    models.Fee         `json:"sending_fee"`
	Limits        []models.UserLimit `json:"limits"`
}

// Panel lists users and approves or rejects pending accounts.
type Panel struct {
	store   Store
	objects *backend.Objects
	logger  *zap.Logger
}

// NewPanel builds the panel. objects resolves id card paths to public URLs.
func NewPanel(store Store, objects *backend.Objects, logger *zap.Logger) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Panel{store: store, objects: objects, logger: logger}
}

// List loads every profile with its limits.
func (p *Panel) List(ctx context.Context) ([]Row, error) {
	profiles, err := p.store.ListProfiles(ctx)
	if err != nil {
		p.logger.Error("list profiles", zap.Error(err))
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	rows := make([]Row, 0, len(profiles))
	for _, pr := range profiles {
		rows = append(rows, row(profile.Coerce(pr, true)))
	}
	return rows, nil
}

// Get loads the detail view of one user.
func (p *Panel) Get(ctx context.Context, id uuid.UUID) (Detail, error) {
	pr, err := p.store.GetProfile(ctx, id, true)
	if err != nil {
		return Detail{}, fmt.Errorf("get profile: %w", err)
	}
	pr = profile.Coerce(pr, true)

	d := Detail{
		Row:           row(pr),
		PlaceOfBirth:  pr.PlaceOfBirth,
		Residence:     pr.Residence,
		Nationality:   pr.Nationality,
		WithdrawalFee: pr.WithdrawalFee,
		SendingFee:    pr.SendingFee,
		Limits:        pr.Limits,
	}
	if pr.DateOfBirth != nil {
		d.DateOfBirth = pr.DateOfBirth.Format(birthDateLayout)
	}
	if p.objects != nil {
		d.IDCardURL = p.objects.PublicURL(backend.IDCardsBucket, pr.IDCardPath)
	}
	return d, nil
}

// Approve marks the account approved.
func (p *Panel) Approve(ctx context.Context, id uuid.UUID) error {
	return p.setStatus(ctx, id, models.StatusApproved)
}

// Reject marks the account rejected. A live session of the user is signed out.
func (p *Panel) Reject(ctx context.Context, id uuid.UUID) error {
	return p.setStatus(ctx, id, models.StatusRejected)
}

func (p *Panel) setStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	if err := p.store.UpdateProfileStatus(ctx, id, status); err != nil {
		p.logger.Warn("update profile status",
			zap.String("user_id", id.String()),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("update profile status: %w", err)
	}
	metrics.Reviews.WithLabelValues("profiles", string(status)).Inc()
	p.logger.Info("profile status updated", zap.String("user_id", id.String()), zap.String("status", string(status)))
	return nil
}

// Notice reports a status change the way the users table toasts it.
func Notice(status models.Status, err error) session.Notice {
	if err != nil {
		msg := "Something went wrong. Please try again."
		if errors.Is(err, storage.ErrNotFound) {
			msg = "User not found"
		}
		return session.Notice{Variant: session.VariantDestructive, Title: "Error", Description: msg}
	}
	return session.Notice{
		Variant:     session.VariantDefault,
		Title:       "Success",
		Description: "User status updated to " + string(status),
	}
}

func row(pr models.Profile) Row {
	return Row{
		ID:         pr.ID,
		Name:       pr.FullName(),
		Username:   pr.Username,
		Role:       pr.Role,
		Status:     pr.Status,
		Balance:    money(pr.Balance),
		Actionable: pr.Status == models.StatusPending,
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
