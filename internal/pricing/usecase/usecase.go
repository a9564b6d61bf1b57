package usecase

import (
	"context"
	"strings"

	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/pricing"
	"github.com/fekuna/repairshop-service/internal/pricing/dto"
	"go.uber.org/zap"
)

type pricingUseCase struct {
	catalog  *pricing.Catalog
	resolver pricing.Resolver
	labels   *pricing.Labels
	logger   logger.ZapLogger
}

func NewPricingUseCase(catalog *pricing.Catalog, brand string, labels *pricing.Labels, log logger.ZapLogger) pricing.UseCase {
	if brand == "" {
		brand = pricing.DefaultBrand
	}
	return &pricingUseCase{
		catalog:  catalog,
		resolver: pricing.Resolver{Brand: brand},
		labels:   labels,
		logger:   log,
	}
}

func (uc *pricingUseCase) ListCategories(ctx context.Context) []model.ServiceCategory {
	return uc.catalog.Categories()
}

func (uc *pricingUseCase) Quote(ctx context.Context, input *dto.QuoteInput) (*dto.Quote, error) {
	category, err := uc.catalog.Category(input.Category)
	if err != nil {
		return nil, err
	}

	q := &dto.Quote{Category: category.Name, Model: input.Model}
	if strings.TrimSpace(input.Model) == "" {
		q.Status = dto.QuoteChooseModel
		q.Label = uc.labels.ChooseModel(input.Lang)
		return q, nil
	}

	price, ok := uc.resolver.Resolve(category, input.Model)
	if !ok {
		uc.logger.Debug("no price for model",
			zap.String("category", category.Name),
			zap.String("model", input.Model),
		)
		q.Status = dto.QuoteNoPrice
		q.Label = uc.labels.NoPrice(input.Lang)
		return q, nil
	}

	q.Status = dto.QuotePriced
	q.Price = &price
	if price.IsAmount() {
		q.Label = uc.labels.Amount(input.Lang, *price.Amount)
	} else {
		q.Label = price.Text
	}
	return q, nil
}
