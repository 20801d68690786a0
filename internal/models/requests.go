package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestKind names the three user-initiated request tables.
type RequestKind string

const (
	KindDeposit    RequestKind = "deposit"
	KindWithdrawal RequestKind = "withdrawal"
	KindSending    RequestKind = "sending"
)

// Table returns the row-store table backing the request kind.
func (k RequestKind) Table() string {
	return string(k) + "_requests"
}

// Valid reports whether k is one of the known kinds.
func (k RequestKind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindSending:
		return true
	}
	return false
}

// TransactionDetails is attached by an admin when approving a withdrawal.
type TransactionDetails struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	SwiftCode     string `json:"swift_code,omitempty"`
	Reference     string `json:"reference,omitempty"`
}

// Empty reports whether no field was filled in.
func (d TransactionDetails) Empty() bool {
	return d == TransactionDetails{}
}

// Request is a deposit, withdrawal or sending request row. Kind-specific
// columns are populated only for their kind.
type Request struct {
	ID              uuid.UUID       `json:"id"`
	Kind            RequestKind     `json:"kind"`
	UserID          uuid.UUID       `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          Status          `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// deposit
	ProofURL string `json:"proof_url,omitempty"`
	// withdrawal
	TransactionDetails *TransactionDetails `json:"transaction_details,omitempty"`
	// sending
	RecipientID *uuid.UUID `json:"recipient_id,omitempty"`
}
