package inventory

import (
	"context"

	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	"github.com/fekuna/repairshop-service/internal/model"
)

type UseCase interface {
	Seed(ctx context.Context, items []dto.SeedItem) (int, error)
	FetchAll(ctx context.Context) ([]model.InventoryItem, error)
	Search(ctx context.Context, text string) ([]model.InventoryItem, error)
	ApplyDelta(ctx context.Context, input *dto.AdjustStockInput) error
	ListMovements(ctx context.Context, limit int) ([]model.StockMovement, error)
	Watch(ctx context.Context, fn func([]model.InventoryItem, error)) (func(), error)

	// Close waits for background work started by Seed, or until ctx ends.
	Close(ctx context.Context) error
}
