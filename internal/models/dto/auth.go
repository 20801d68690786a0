package dto

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
)

const dateLayout = "2006-01-02"

// ValidationError is a form problem phrased for the user.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// SignUpForm is the sign-up payload.
type SignUpForm struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	DateOfBirth  string `json:"dateOfBirth"`
	PlaceOfBirth string `json:"placeOfBirth"`
	Residence    string `json:"residence"`
	Nationality  string `json:"nationality"`
}

// Normalize trims all free-text fields in place.
func (f *SignUpForm) Normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.DateOfBirth = strings.TrimSpace(f.DateOfBirth)
	f.PlaceOfBirth = strings.TrimSpace(f.PlaceOfBirth)
	f.Residence = strings.TrimSpace(f.Residence)
	f.Nationality = strings.TrimSpace(f.Nationality)
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// Validate checks required fields. Call Normalize first.
func (f SignUpForm) Validate() error {
	if f.FirstName == "" || f.LastName == "" || f.Username == "" {
		return ValidationError("first name, last name, and username are required")
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return ValidationError("a valid email is required")
	}
	if len(strings.TrimSpace(f.Password)) < 8 || !utf8.ValidString(f.Password) {
		return ValidationError("password must be at least 8 characters")
	}
	if len(f.Password) > maxPasswordBytes {
		return ValidationError("password must be at most 72 bytes")
	}
	if f.DateOfBirth != "" {
		if _, err := time.Parse(dateLayout, f.DateOfBirth); err != nil {
			return ValidationError("date of birth must be YYYY-MM-DD")
		}
	}
	return nil
}

// Metadata extracts the personal fields embedded into the new identity.
func (f SignUpForm) Metadata() models.SignUpMetadata {
	meta := models.SignUpMetadata{
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Username:     f.Username,
		PlaceOfBirth: f.PlaceOfBirth,
		Residence:    f.Residence,
		Nationality:  f.Nationality,
	}
	if dob, err := time.Parse(dateLayout, f.DateOfBirth); err == nil {
		meta.DateOfBirth = &dob
	}
	return meta
}

// SignInRequest is the sign-in payload.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ApproveRequest carries optional withdrawal transaction details.
type ApproveRequest struct {
	TransactionDetails models.TransactionDetails `json:"transaction_details"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"rejection_reason"`
}
