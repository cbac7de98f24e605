package dto

import (
	"time"

	"github.com/samber/lo"

	"github.com/spec-kit/lead-service/internal/domain"
)

// LoginRequest payload for POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateUserRequest payload for POST /users.
type CreateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	AccessRole string `json:"accessRole"`
}

// UpdateUserRequest payload for PATCH /users/:id. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	AccessRole *string `json:"accessRole"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// MeResponse echoes the identity carried by the bearer token.
type MeResponse struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func roleNames(roles []domain.Role) []string {
	if len(roles) == 0 {
		return []string{}
	}
	return lo.Map(roles, func(r domain.Role, _ int) string { return string(r) })
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Roles:     roleNames(u.Roles),
		CreatedAt: u.CreatedAt,
	}
}

// NewMeResponse maps the request identity.
func NewMeResponse(id domain.Identity) MeResponse {
	return MeResponse{ID: id.ID, Email: id.Email, Roles: roleNames(id.Roles)}
}
