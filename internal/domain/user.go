package domain

import (
	"time"

	"github.com/samber/lo"
)

// Role names an access grant. Route permission sets are expressed as roles.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// KnownRoles lists the roles seeded into the accesses table.
var KnownRoles = []Role{RoleAdmin, RoleUser}

// Valid reports whether r is one of the seeded roles.
func (r Role) Valid() bool {
	return lo.Contains(KnownRoles, r)
}

// User is a subject that can log in and hold role grants.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Access is a grantable role row.
type Access struct {
	ID   string
	Name Role
}
