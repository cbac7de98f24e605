package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/spec-kit/lead-service/internal/domain"
	apperrors "github.com/spec-kit/lead-service/pkg/util/errorutil"
)

// SubjectStore resolves a subject with its current role grants.
type SubjectStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Gate verifies bearer credentials and checks route permission sets.
type Gate struct {
	tokens *TokenManager
	users  SubjectStore
}

// NewGate constructs the gate.
func NewGate(tokens *TokenManager, users SubjectStore) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authorize decides a single request. The returned identity is populated
// whenever the credential is valid, even when permission is denied.
//
// With an empty required set the embedded roles are trusted and the store
// is never consulted, so revoked grants keep working on those routes until
// the credential expires.
func (g *Gate) Authorize(ctx context.Context, authHeader string, required []domain.Role) (domain.Identity, error) {
	if strings.TrimSpace(authHeader) == "" {
		return domain.Identity{}, apperrors.NewUnauthorized("token missing")
	}

	token, ok := bearerToken(authHeader)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthorized("invalid token")
	}
	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		return domain.Identity{}, apperrors.NewUnauthorized("invalid token")
	}
	identity := claims.Identity()

	if len(required) == 0 {
		return identity, nil
	}

	user, err := g.users.GetByID(ctx, identity.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return identity, apperrors.NewForbidden("user not found")
		}
		return identity, apperrors.MapError(err)
	}
	if !Permits(required, user.Roles) {
		return identity, apperrors.NewForbidden("permission denied")
	}
	return identity, nil
}

// Require returns a handler enforcing the given permission set, fixed at
// route registration. No roles means any valid credential passes.
func (g *Gate) Require(required ...domain.Role) fiber.Handler {
	required = lo.Uniq(required)
	return func(c *fiber.Ctx) error {
		identity, err := g.Authorize(c.UserContext(), c.Get(fiber.HeaderAuthorization), required)
		if identity.ID != "" {
			c.SetUserContext(WithIdentity(c.UserContext(), identity))
		}
		if err != nil {
			return err
		}
		return c.Next()
	}
}

// Permits reports whether the granted roles intersect the required set.
func Permits(required, granted []domain.Role) bool {
	return len(lo.Intersect(required, granted)) > 0
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
