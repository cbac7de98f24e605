package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-service/internal/auth"
	"github.com/spec-kit/lead-service/internal/config"
	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/repository"
	apperrors "github.com/spec-kit/lead-service/pkg/util/errorutil"
)

// AuthService coordinates login and token issuance.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	throttle *auth.LoginThrottle
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, throttle *auth.LoginThrottle, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		throttle: throttle,
		logger:   logger,
	}
}

// Login checks credentials and issues a token embedding the user's current roles.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.IssuedToken, error) {
	allowed, err := s.throttle.Allowed(ctx, email)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, domain.IssuedToken{}, apperrors.NewTooManyRequests("too many failed login attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.recordFailure(ctx, email)
			return nil, domain.IssuedToken{}, apperrors.NewUnauthorized("user not found")
		}
		return nil, domain.IssuedToken{}, apperrors.MapError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, email)
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized("incorrect password")
	}

	issued, err := s.tokenMgr.GenerateToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	if err := s.throttle.Reset(ctx, email); err != nil {
		s.logger.Warn("reset login throttle", zap.Error(err))
	}
	return user, issued, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if err := s.throttle.Fail(ctx, email); err != nil {
		s.logger.Warn("record failed login", zap.Error(err))
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
