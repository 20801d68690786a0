package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeType selects how a fee value is interpreted.
type FeeType string

const (
	FeePercentage FeeType = "percentage"
	FeeFixed      FeeType = "fixed"
)

// ParseFeeType coerces a stored fee type, defaulting to FeePercentage.
func ParseFeeType(raw string) FeeType {
	if FeeType(raw) == FeeFixed {
		return FeeFixed
	}
	return FeePercentage
}

// Fee is a per-profile fee configuration. It is stored and displayed only.
type Fee struct {
	Type  FeeType         `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// LimitType names the operation a UserLimit applies to.
type LimitType string

const (
	LimitWithdrawal LimitType = "withdrawal"
	LimitSending    LimitType = "sending"
)

// Period is the window a UserLimit covers.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// UserLimit is one row of user_limits.
type UserLimit struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	LimitType LimitType       `json:"limit_type"`
	Period    Period          `json:"period"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Profile is the application-level user record, distinct from the auth identity.
type Profile struct {
	ID            uuid.UUID       `json:"id"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Username      string          `json:"username"`
	DateOfBirth   *time.Time      `json:"date_of_birth,omitempty"`
	PlaceOfBirth  string          `json:"place_of_birth,omitempty"`
	Residence     string          `json:"residence,omitempty"`
	Nationality   string          `json:"nationality,omitempty"`
	IDCardPath    string          `json:"id_card_url,omitempty"`
	Role          Role            `json:"role"`
	Status        Status          `json:"status"`
	Balance       decimal.Decimal `json:"balance"`
	WithdrawalFee Fee             `json:"withdrawal_fee"`
	SendingFee    Fee             `json:"sending_fee"`
	Limits        []UserLimit     `json:"limits,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// FullName joins first and last name the way the admin tables show it.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// IsAdmin reports whether the profile may use the admin console.
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
