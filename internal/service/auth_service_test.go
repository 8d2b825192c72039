package service

import (
	"context"
	"testing"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/pkg/serverutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterLoginMe(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	tokens := serverutils.NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(f.uowFactory, tokens)

	registered, err := svc.Register(ctx, &dto.RegisterRequest{Username: "sam", Email: "Sam@Example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", registered.User.Email)

	claims, err := tokens.Parse(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.Id, claims.UserId)

	loggedIn, err := svc.Login(ctx, &dto.LoginRequest{Email: "sam@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.Id, loggedIn.User.Id)

	me, err := svc.Me(ctx, registered.User.Id)
	require.NoError(t, err)
	assert.Equal(t, "sam", me.Username)
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	svc := NewAuthService(f.uowFactory, serverutils.NewTokenManager("test-secret", time.Hour))

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "tia", Email: "tia@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, &dto.LoginRequest{Email: "tia@example.com", Password: "battery"})
	_, unknownEmail := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "battery"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
}

func TestAuthService_DuplicateRegistration(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	svc := NewAuthService(f.uowFactory, serverutils.NewTokenManager("test-secret", time.Hour))

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "uma", Email: "uma@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "uma2", Email: "uma@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "uma", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}
