package domain

import "time"

// Identity is the decoded bearer credential attached to a request.
// Roles is the snapshot embedded at issuance, not a live lookup.
type Identity struct {
	ID    string
	Email string
	Roles []Role
}

// IssuedToken is a signed credential and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}
