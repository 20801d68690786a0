package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

// Source is the single row read the fetcher performs.
type Source interface {
	GetProfile(ctx context.Context, id uuid.UUID, withLimits bool) (models.Profile, error)
}

// Fetcher loads one profile and coerces it into its typed shape. It never
// fails to its caller: errors are logged and surface as a nil profile.
type Fetcher struct {
	source Source
	logger *zap.Logger
}

// NewFetcher builds a fetcher over source.
func NewFetcher(source Source, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{source: source, logger: logger}
}

// Fetch returns the profile of userID, or nil if it is missing or the read failed.
func (f *Fetcher) Fetch(ctx context.Context, userID uuid.UUID, withLimits bool) *models.Profile {
	p, err := f.source.GetProfile(ctx, userID, withLimits)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			f.logger.Warn("profile not found", zap.String("user_id", userID.String()))
		case errors.Is(err, context.Canceled):
			f.logger.Debug("profile fetch cancelled", zap.String("user_id", userID.String()))
		default:
			f.logger.Error("error fetching profile", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return nil
	}
	p = Coerce(p, withLimits)
	return &p
}

// Coerce fills loosely-typed or missing fields with their defaults.
func Coerce(p models.Profile, withLimits bool) models.Profile {
	p.Role = models.ParseRole(string(p.Role))
	p.Status = models.ParseStatus(string(p.Status))
	p.WithdrawalFee = coerceFee(p.WithdrawalFee)
	p.SendingFee = coerceFee(p.SendingFee)
	if withLimits && p.Limits == nil {
		p.Limits = []models.UserLimit{}
	}
	return p
}

func coerceFee(fee models.Fee) models.Fee {
	fee.Type = models.ParseFeeType(string(fee.Type))
	if fee.Value.IsNegative() {
		fee.Value = decimal.Zero
	}
	return fee
}
