package pricing

import (
	"context"

	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/pricing/dto"
)

type UseCase interface {
	ListCategories(ctx context.Context) []model.ServiceCategory
	Quote(ctx context.Context, input *dto.QuoteInput) (*dto.Quote, error)
}
