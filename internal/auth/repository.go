package auth

import (
	"context"

	"github.com/fekuna/repairshop-service/internal/model"
)

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*model.Staff, error)
	FindByID(ctx context.Context, id string) (*model.Staff, error)
	Create(ctx context.Context, staff *model.Staff) error
}
