package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-service/internal/auth"
	"github.com/spec-kit/lead-service/internal/domain"
)

func newUserFixture() (*UserService, *memUsers) {
	users := newMemUsers()
	return NewUserService(users, NewDomainChecker(staticResolver{}, zap.NewNop()), 4), users
}

func TestCreateUser(t *testing.T) {
	svc, users := newUserFixture()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Reader", Email: "reader@example.com", Password: "secret1", AccessRole: domain.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleUser}, user.Roles)
	assert.NoError(t, auth.ComparePassword(users.byID[user.ID].PasswordHash, "secret1"))

	_, err = svc.Create(context.Background(), CreateUserInput{
		Email: "reader@example.com", Password: "secret1", AccessRole: domain.RoleAdmin,
	})
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), CreateUserInput{Email: "bad", Password: "123", AccessRole: "READER"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestUpdateUser(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	user, err := svc.Create(ctx, CreateUserInput{Email: "u@example.com", Password: "secret1", AccessRole: domain.RoleUser})
	require.NoError(t, err)

	password := "another1"
	role := domain.RoleAdmin
	updated, err := svc.Update(ctx, user.ID, UpdateUserInput{Password: &password, AccessRole: &role})
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, updated.Roles)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, users.byID[user.ID].Roles)
	assert.NoError(t, auth.ComparePassword(users.byID[user.ID].PasswordHash, "another1"))
}

func TestUpdateAndDeleteMissingUser(t *testing.T) {
	svc, _ := newUserFixture()
	missing := "0191d2a0-0000-7000-8000-00000000ffff"

	_, err := svc.Update(context.Background(), missing, UpdateUserInput{})
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	assert.Equal(t, http.StatusNotFound, statusOf(svc.Delete(context.Background(), missing)))
}

func TestListUsersNeverNil(t *testing.T) {
	svc, _ := newUserFixture()

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
}

func TestUpdateUserFailedGrantLeavesProfileUntouched(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	user, err := svc.Create(ctx, CreateUserInput{Name: "Old", Email: "old@example.com", Password: "secret1", AccessRole: domain.RoleUser})
	require.NoError(t, err)
	users.grantErr = errors.New("db down")

	name := "New"
	role := domain.RoleAdmin
	_, err = svc.Update(ctx, user.ID, UpdateUserInput{Name: &name, AccessRole: &role})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))

	stored := users.byID[user.ID]
	assert.Equal(t, "Old", stored.Name)
	assert.Equal(t, []domain.Role{domain.RoleUser}, stored.Roles)
}

func TestUpdateUserRejectsShortPassword(t *testing.T) {
	svc, users := newUserFixture()
	user, err := svc.Create(context.Background(), CreateUserInput{Email: "p@example.com", Password: "secret1", AccessRole: domain.RoleUser})
	require.NoError(t, err)
	before := users.byID[user.ID].PasswordHash

	short := "123"
	_, err = svc.Update(context.Background(), user.ID, UpdateUserInput{Password: &short})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Equal(t, before, users.byID[user.ID].PasswordHash)
}
