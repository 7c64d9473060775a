package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n4wf3l/perfume-platform-backend/internal/auth"
	"github.com/n4wf3l/perfume-platform-backend/internal/config"
	"github.com/n4wf3l/perfume-platform-backend/internal/repository/mysql"
)

func TestLoginRoundtrip(t *testing.T) {
	db := newTestDB(t)
	jwtCfg := &config.JWTConfig{Secret: "test-secret"}
	svc := NewUserService(mysql.NewUserRepository(db), jwtCfg, nil)

	u, err := svc.Register(context.Background(), "admin@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", u.Password, "password must be stored hashed")

	token, err := svc.Login(context.Background(), "admin@example.com", "s3cret")
	require.NoError(t, err)

	claims, err := auth.ParseToken(jwtCfg, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	jwtCfg := &config.JWTConfig{Secret: "test-secret"}
	svc := NewUserService(mysql.NewUserRepository(db), jwtCfg, nil)

	_, err := svc.Register(context.Background(), "admin@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "ghost@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterSaltsPerUser(t *testing.T) {
	db := newTestDB(t)
	jwtCfg := &config.JWTConfig{Secret: "test-secret"}
	svc := NewUserService(mysql.NewUserRepository(db), jwtCfg, nil)

	a, err := svc.Register(context.Background(), "a@example.com", "same-password")
	require.NoError(t, err)
	b, err := svc.Register(context.Background(), "b@example.com", "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Password, b.Password)
}
