package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-service/internal/auth"
	"github.com/spec-kit/lead-service/internal/config"
	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/observability"
	"github.com/spec-kit/lead-service/internal/persistence"
	"github.com/spec-kit/lead-service/internal/repository"
	apperrors "github.com/spec-kit/lead-service/pkg/util/errorutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required for seeding")
	}

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	if err := seed(ctx, repository.NewAccessRepository(pool), repository.NewUserRepository(pool), cfg, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

// seed creates the known roles and the default administrator when missing.
func seed(ctx context.Context, accesses repository.AccessRepository, users repository.UserRepository, cfg *config.Config, logger *zap.Logger) error {
	for _, role := range domain.KnownRoles {
		created, err := accesses.Ensure(ctx, role)
		if err != nil {
			return fmt.Errorf("ensure role %s: %w", role, err)
		}
		if created {
			logger.Info("role created", zap.String("role", string(role)))
		}
	}

	email := cfg.Seed.AdminEmail
	if _, err := users.GetByEmail(ctx, email); err == nil {
		logger.Info("admin already exists", zap.String("email", email))
		return nil
	} else if !apperrors.IsNotFound(err) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Seed.AdminPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &domain.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.Role{domain.RoleAdmin},
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin created", zap.String("email", email), zap.String("id", admin.ID))
	return nil
}
