package models

// Role separates admin console operators from portal users.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Status is the approval state shared by profiles and requests.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseRole coerces a stored role string. Unknown values fall back to RoleUser.
func ParseRole(raw string) Role {
	if Role(raw) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// ParseStatus coerces a stored status string. Unknown values fall back to StatusPending.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusApproved:
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// Gated reports whether an account in this status may not hold a live session.
func (s Status) Gated() bool {
	return s == StatusPending || s == StatusRejected
}
