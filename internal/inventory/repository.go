package inventory

import (
	"context"
	"time"

	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	"github.com/fekuna/repairshop-service/internal/model"
)

type Repository interface {
	// SaveBatch upserts records with merge semantics in one atomic commit.
	SaveBatch(ctx context.Context, records []dto.SeedItem, createdAt time.Time) error
	FindAll(ctx context.Context) ([]model.InventoryItem, error)

	// IncrementStock applies delta to every id and records the movement, all in one commit.
	IncrementStock(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, limit int) ([]model.StockMovement, error)

	Watch(ctx context.Context, fn func([]model.InventoryItem, error)) (func(), error)
}
