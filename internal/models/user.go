package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the authentication record behind a Profile.
type Identity struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SignUpMetadata is the personal data embedded into a new identity and copied
// into its pending profile.
type SignUpMetadata struct {
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Username     string     `json:"username"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	PlaceOfBirth string     `json:"place_of_birth,omitempty"`
	Residence    string     `json:"residence,omitempty"`
	Nationality  string     `json:"nationality,omitempty"`
}

// Session is a live backend auth session. AccessToken is the bearer
// credential a portal client presents on its next visit.
type Session struct {
	ID          string    `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExpiresWithin reports whether the session expires before now+d.
func (s Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !s.ExpiresAt.After(now.Add(d))
}
