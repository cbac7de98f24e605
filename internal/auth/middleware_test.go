package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-service/internal/domain"
	apperrors "github.com/spec-kit/lead-service/pkg/util/errorutil"
)

type fakeSubjects struct {
	users map[string]*domain.User
	err   error
	calls int
}

func (f *fakeSubjects) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func newTestGate(t *testing.T, users map[string]*domain.User) (*Gate, *TokenManager, *fakeSubjects) {
	t.Helper()
	tm := NewTokenManager("gate-secret", 60)
	store := &fakeSubjects{users: users}
	return NewGate(tm, store), tm, store
}

func bearer(t *testing.T, tm *TokenManager, id string, roles ...domain.Role) string {
	t.Helper()
	issued, err := tm.GenerateToken(id, id+"@example.com", roles)
	require.NoError(t, err)
	return "Bearer " + issued.Token
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return apperrors.ToDomainError(err).HTTPStatus
}

func TestAuthorizeMissingToken(t *testing.T) {
	gate, _, store := newTestGate(t, nil)

	_, err := gate.Authorize(context.Background(), "", []domain.Role{domain.RoleAdmin})
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
	assert.EqualError(t, err, "token missing")
	assert.Zero(t, store.calls)
}

func TestAuthorizeInvalidTokens(t *testing.T) {
	gate, _, store := newTestGate(t, nil)
	expired := NewTokenManager("gate-secret", 60)
	expired.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	expiredHeader := bearer(t, expired, "u-1", domain.RoleAdmin)
	foreign := bearer(t, NewTokenManager("other-secret", 60), "u-1", domain.RoleAdmin)

	headers := []string{"Bearer garbage", "Basic abc", "Bearer ", expiredHeader, foreign}
	for _, required := range [][]domain.Role{nil, {domain.RoleAdmin}} {
		for _, header := range headers {
			_, err := gate.Authorize(context.Background(), header, required)
			assert.Equal(t, http.StatusUnauthorized, statusOf(err), header)
			assert.EqualError(t, err, "invalid token")
		}
	}
	assert.Zero(t, store.calls)
}

func TestAuthorizeNoPermissionSkipsStore(t *testing.T) {
	gate, tm, store := newTestGate(t, nil)

	identity, err := gate.Authorize(context.Background(), bearer(t, tm, "ghost", domain.RoleAdmin), nil)
	require.NoError(t, err)
	assert.Equal(t, "ghost", identity.ID)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, identity.Roles)
	assert.Zero(t, store.calls)
}

func TestAuthorizeUsesLiveRoles(t *testing.T) {
	users := map[string]*domain.User{
		"admin":   {ID: "admin", Roles: []domain.Role{domain.RoleAdmin, domain.RoleUser}},
		"revoked": {ID: "revoked", Roles: []domain.Role{domain.RoleUser}},
	}
	gate, tm, _ := newTestGate(t, users)

	_, err := gate.Authorize(context.Background(), bearer(t, tm, "admin"), []domain.Role{domain.RoleAdmin})
	assert.NoError(t, err)

	// embedded ADMIN is ignored once the grant is gone
	identity, err := gate.Authorize(context.Background(), bearer(t, tm, "revoked", domain.RoleAdmin), []domain.Role{domain.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	assert.EqualError(t, err, "permission denied")
	assert.Equal(t, "revoked", identity.ID)

	_, err = gate.Authorize(context.Background(), bearer(t, tm, "revoked"), []domain.Role{domain.RoleAdmin, domain.RoleUser})
	assert.NoError(t, err)
}

func TestAuthorizeUnknownSubject(t *testing.T) {
	gate, tm, _ := newTestGate(t, map[string]*domain.User{})

	_, err := gate.Authorize(context.Background(), bearer(t, tm, "gone", domain.RoleAdmin), []domain.Role{domain.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	assert.EqualError(t, err, "user not found")
}

func TestAuthorizeStoreFailure(t *testing.T) {
	gate, tm, store := newTestGate(t, nil)
	store.err = errors.New("connection reset")

	_, err := gate.Authorize(context.Background(), bearer(t, tm, "u"), []domain.Role{domain.RoleAdmin})
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))
}

func TestRequireAttachesIdentity(t *testing.T) {
	users := map[string]*domain.User{"admin": {ID: "admin", Roles: []domain.Role{domain.RoleAdmin}}}
	gate, tm, _ := newTestGate(t, users)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/admin", gate.Require(domain.RoleAdmin), func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c.UserContext())
		if !ok {
			return c.SendStatus(http.StatusTeapot)
		}
		return c.SendString(identity.Email)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, tm, "admin"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "admin@example.com", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPermits(t *testing.T) {
	assert.True(t, Permits([]domain.Role{domain.RoleAdmin}, []domain.Role{domain.RoleUser, domain.RoleAdmin}))
	assert.True(t, Permits([]domain.Role{domain.RoleAdmin, domain.RoleUser}, []domain.Role{domain.RoleUser}))
	assert.False(t, Permits([]domain.Role{domain.RoleAdmin}, []domain.Role{domain.RoleUser}))
	assert.False(t, Permits([]domain.Role{domain.RoleAdmin}, nil))
}
