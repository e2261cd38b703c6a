package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/bank-rest/internal/auth"
	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/stretchr/testify/require"
)

var jwtSecret = []byte("test-secret")

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryRepository(), testLogger(), jwtSecret, time.Hour)

	token, user, err := svc.Register(ctx, " Ivan Ivanov ", "Ivan@Example.com", "Password123")
	require.NoError(t, err)
	require.Equal(t, "Ivan Ivanov", user.Name)
	require.Equal(t, "ivan@example.com", user.Email)
	require.NotEqual(t, "Password123", user.PasswordHash)
	require.Equal(t, []models.Role{models.RoleUser}, user.Roles)

	claims, err := auth.ParseToken(jwtSecret, token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, user.ID, id)

	_, _, err = svc.Register(ctx, "Other", "ivan@example.com", "Password123")
	require.ErrorIs(t, err, ErrUserAlreadyExists)

	token, err = svc.Login(ctx, "IVAN@example.com", "Password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = svc.Login(ctx, "ivan@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "Password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryRepository(), testLogger(), jwtSecret, time.Hour)

	_, user, err := svc.Register(ctx, "Ivan", "ivan@example.com", "Password123")
	require.NoError(t, err)

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)

	_, err = svc.Get(ctx, 100)
	require.ErrorIs(t, err, ErrUserNotFound)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewUserService(repo, testLogger(), jwtSecret, time.Hour)

	require.NoError(t, svc.EnsureAdmin(ctx, "Admin", "admin@example.com", "Admin123"))
	require.NoError(t, svc.EnsureAdmin(ctx, "Admin", "admin@example.com", "Admin123"))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.True(t, users[0].HasRole(models.RoleAdmin))

	_, err = svc.Login(ctx, "admin@example.com", "Admin123")
	require.NoError(t, err)
}
