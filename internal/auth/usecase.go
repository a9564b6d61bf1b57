package auth

import (
	"context"

	"github.com/fekuna/repairshop-service/internal/auth/dto"
	"github.com/fekuna/repairshop-service/internal/model"
)

type UseCase interface {
	SignIn(ctx context.Context, input *dto.SignInInput) (*dto.Session, error)
	SignOut(ctx context.Context, token string) error
	// Authenticate validates a bearer token and returns the user it belongs to.
	Authenticate(ctx context.Context, token string) (*UserContext, error)
	Me(ctx context.Context) (*model.Staff, error)
	CreateStaff(ctx context.Context, input *dto.CreateStaffInput) (*model.Staff, error)
}
