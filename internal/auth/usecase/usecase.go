package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/fekuna/repairshop-service/internal/auth"
	"github.com/fekuna/repairshop-service/internal/auth/dto"
	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultRole       = "staff"
	minPasswordLength = 8
)

type authUseCase struct {
	repo    auth.Repository
	tokens  *auth.TokenManager
	revoker auth.Revoker
	logger  logger.ZapLogger
}

func NewAuthUseCase(repo auth.Repository, tokens *auth.TokenManager, revoker auth.Revoker, log logger.ZapLogger) auth.UseCase {
	return &authUseCase{
		repo:    repo,
		tokens:  tokens,
		revoker: revoker,
		logger:  log,
	}
}

func (uc *authUseCase) SignIn(ctx context.Context, input *dto.SignInInput) (*dto.Session, error) {
	staff, err := uc.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			uc.logger.Info("sign in for unknown email", zap.String("email", input.Email))
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(input.Password)); err != nil {
		uc.logger.Info("sign in with wrong password", zap.String("user_id", staff.ID))
		return nil, auth.ErrInvalidCredentials
	}

	token, claims, err := uc.tokens.Issue(staff.ID, staff.Email, staff.Role)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("staff signed in", zap.String("user_id", staff.ID), zap.String("token_id", claims.ID))
	return &dto.Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      dto.UserFromStaff(staff),
	}, nil
}

func (uc *authUseCase) SignOut(ctx context.Context, token string) error {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return err
	}
	if err := uc.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		uc.logger.Error("failed to revoke token", zap.String("token_id", claims.ID), zap.Error(err))
		return err
	}
	uc.logger.Info("staff signed out", zap.String("user_id", claims.Subject))
	return nil
}

func (uc *authUseCase) Authenticate(ctx context.Context, token string) (*auth.UserContext, error) {
	if token == "" {
		return nil, auth.ErrUnauthenticated
	}
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := uc.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, auth.ErrTokenRevoked
	}
	return &auth.UserContext{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.ID,
	}, nil
}

func (uc *authUseCase) Me(ctx context.Context) (*model.Staff, error) {
	u, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return uc.repo.FindByID(ctx, u.UserID)
}

func (uc *authUseCase) CreateStaff(ctx context.Context, input *dto.CreateStaffInput) (*model.Staff, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, auth.ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, auth.ErrWeakPassword
	}

	_, err := uc.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, auth.ErrEmailTaken
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = DefaultRole
	}
	staff := &model.Staff{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  input.DisplayName,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := uc.repo.Create(ctx, staff); err != nil {
		return nil, err
	}

	uc.logger.Info("staff created", zap.String("user_id", staff.ID), zap.String("role", role))
	return staff, nil
}
