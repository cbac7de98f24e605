package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/spec-kit/lead-service/internal/auth"
	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/repository"
	"github.com/spec-kit/lead-service/internal/validation"
	apperrors "github.com/spec-kit/lead-service/pkg/util/errorutil"
)

// CreateUserInput describes a new user and its single role grant.
type CreateUserInput struct {
	Name       string      `json:"name"`
	Email      string      `json:"email" validate:"required,email"`
	Password   string      `json:"password" validate:"required,min=6"`
	AccessRole domain.Role `json:"accessRole" validate:"required,oneof=ADMIN USER"`
}

// UpdateUserInput is a partial user update.
type UpdateUserInput struct {
	Name       *string      `json:"name"`
	Email      *string      `json:"email" validate:"omitempty,email"`
	Password   *string      `json:"password" validate:"omitempty,min=6"`
	AccessRole *domain.Role `json:"accessRole" validate:"omitempty,oneof=ADMIN USER"`
}

// UserService manages user accounts and their role grants.
type UserService struct {
	users      repository.UserRepository
	domains    *DomainChecker
	validate   *validation.Validator
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, domains *DomainChecker, bcryptCost int) *UserService {
	return &UserService{users: users, domains: domains, validate: validation.New(nil), bcryptCost: bcryptCost}
}

// Create registers a user with one role.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("user with this email already exists", nil)
	} else if !apperrors.IsNotFound(err) {
		return nil, apperrors.MapError(err)
	}

	s.domains.CheckAsync(in.Email)

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Roles:        []domain.Role{in.AccessRole},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.mapRoleError(err, in.AccessRole)
	}
	return user, nil
}

// List returns every user with role names.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Update applies a partial update. A new role replaces the existing grants
// in the same transaction as the profile change.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		in.Email = &email
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	var roles []domain.Role
	if in.AccessRole != nil {
		roles = []domain.Role{*in.AccessRole}
	}
	if err := s.users.Update(ctx, user, roles); err != nil {
		return nil, s.mapRoleError(err, lo.FromPtr(in.AccessRole))
	}
	if roles != nil {
		user.Roles = roles
	}
	return user, nil
}

// Delete removes a user and its grants.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFoundAs(err, "user")
	}
	return nil
}

func (s *UserService) mapRoleError(err error, role domain.Role) error {
	switch {
	case errors.Is(err, repository.ErrUnknownRole):
		return apperrors.NewValidationError(fmt.Sprintf("the access role '%s' does not exist", role), nil)
	case apperrors.IsUniqueViolation(err):
		return apperrors.NewConflict("user with this email already exists", nil)
	}
	return notFoundAs(err, "user")
}
