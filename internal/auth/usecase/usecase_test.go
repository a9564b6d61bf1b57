package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/repairshop-service/internal/auth"
	"github.com/fekuna/repairshop-service/internal/auth/dto"
	"github.com/fekuna/repairshop-service/internal/auth/repository"
	"github.com/fekuna/repairshop-service/internal/docstore/memory"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUseCase(t *testing.T) auth.UseCase {
	t.Helper()
	repo := repository.NewDocRepository(memory.New())
	tokens := auth.NewTokenManager("test-secret", "repairshop", time.Hour)
	uc := NewAuthUseCase(repo, tokens, auth.NewMemoryRevoker(), logger.NewNop())

	_, err := uc.CreateStaff(context.Background(), &dto.CreateStaffInput{
		Email:       "Owner@Shop.test ",
		Password:    "correct-horse",
		DisplayName: "Owner",
		Role:        "admin",
	})
	require.NoError(t, err)
	return uc
}

func TestSignInAndAuthenticate(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	session, err := uc.SignIn(ctx, &dto.SignInInput{Email: "owner@shop.test", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "admin", session.User.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	user, err := uc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.UserID)
	assert.Equal(t, "owner@shop.test", user.Email)

	me, err := uc.Me(auth.WithUser(ctx, user))
	require.NoError(t, err)
	assert.Equal(t, "Owner", me.DisplayName)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	_, err := uc.SignIn(ctx, &dto.SignInInput{Email: "owner@shop.test", Password: "wrong-password"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = uc.SignIn(ctx, &dto.SignInInput{Email: "nobody@shop.test", Password: "correct-horse"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestSignOutRevokesToken(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	session, err := uc.SignIn(ctx, &dto.SignInInput{Email: "owner@shop.test", Password: "correct-horse"})
	require.NoError(t, err)
	other, err := uc.SignIn(ctx, &dto.SignInInput{Email: "owner@shop.test", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, uc.SignOut(ctx, session.Token))

	_, err = uc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	_, err = uc.Authenticate(ctx, other.Token)
	assert.NoError(t, err)
}

func TestAuthenticateRejectsForeignTokens(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	foreign := auth.NewTokenManager("other-secret", "repairshop", time.Hour)
	token, _, err := foreign.Issue("u1", "x@y.z", "admin")
	require.NoError(t, err)
	_, err = uc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = uc.Me(ctx)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestCreateStaffValidation(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateStaff(ctx, &dto.CreateStaffInput{Email: "owner@shop.test", Password: "long-enough"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	_, err = uc.CreateStaff(ctx, &dto.CreateStaffInput{Email: "not-an-email", Password: "long-enough"})
	assert.ErrorIs(t, err, auth.ErrInvalidEmail)

	_, err = uc.CreateStaff(ctx, &dto.CreateStaffInput{Email: "tech@shop.test", Password: "short"})
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	staff, err := uc.CreateStaff(ctx, &dto.CreateStaffInput{Email: "tech@shop.test", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRole, staff.Role)
	assert.NotEqual(t, "long-enough", staff.PasswordHash)
}
