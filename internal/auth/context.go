package auth

import (
	"context"

	"github.com/spec-kit/lead-service/internal/domain"
)

type ctxKey int

const identityKey ctxKey = 1

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity attached by the gate.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
