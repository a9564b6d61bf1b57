package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/inventory"
	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSeedBatchSize = 450
	searchResultLimit    = 100
)

// maxAdjustItems leaves one batch slot for the movement record.
const maxAdjustItems = docstore.MaxBatchOps - 1

const indexMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"category": { "type": "keyword" },
			"model": { "type": "text" }
		}
	}
}`

// Indexer is the search backend. It is optional.
type Indexer interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	BulkIndex(ctx context.Context, index string, docs map[string]any) error
	SearchIDs(ctx context.Context, index, text string, fields []string, size int) ([]string, error)
}

// SearchCache holds index hits per query. Only ids are cached, so stock is
// always read from the store.
type SearchCache interface {
	Get(ctx context.Context, query string, out any) (bool, error)
	Set(ctx context.Context, query string, v any) error
	Invalidate(ctx context.Context) error
}

type Options struct {
	SeedBatchSize int
	Index         string
	// SyncIndex indexes each seeded chunk before Seed moves on. Short-lived
	// processes set it so indexing is not cut off at exit.
	SyncIndex bool
	Cache     SearchCache
	Clock     func() time.Time
}

type inventoryUseCase struct {
	repo      inventory.Repository
	indexer   Indexer
	cache     SearchCache
	index     string
	syncIndex bool
	batchSize int
	now       func() time.Time
	logger    logger.ZapLogger

	indexing sync.WaitGroup
}

func NewInventoryUseCase(repo inventory.Repository, indexer Indexer, opts Options, log logger.ZapLogger) (inventory.UseCase, error) {
	if opts.SeedBatchSize == 0 {
		opts.SeedBatchSize = DefaultSeedBatchSize
	}
	if opts.SeedBatchSize < 1 || opts.SeedBatchSize > docstore.MaxBatchOps {
		return nil, fmt.Errorf("%d: %w", opts.SeedBatchSize, inventory.ErrInvalidBatchSize)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Index == "" {
		opts.Index = "inventory"
	}
	return &inventoryUseCase{
		repo:      repo,
		indexer:   indexer,
		cache:     opts.Cache,
		index:     opts.Index,
		syncIndex: opts.SyncIndex,
		batchSize: opts.SeedBatchSize,
		now:       opts.Clock,
		logger:    log,
	}, nil
}

func (uc *inventoryUseCase) Seed(ctx context.Context, items []dto.SeedItem) (int, error) {
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return 0, inventory.ErrEmptyName
		}
	}

	written := 0
	chunk := 0
	for start := 0; start < len(items); start += uc.batchSize {
		chunk++
		end := min(start+uc.batchSize, len(items))
		part := items[start:end]

		// Each chunk is committed before the next one is built.
		if err := uc.repo.SaveBatch(ctx, part, uc.now()); err != nil {
			uc.logger.Error("seed chunk failed",
				zap.Int("chunk", chunk),
				zap.Int("written", written),
				zap.Int("unwritten", len(items)-written),
				zap.Error(err),
			)
			return written, &inventory.SeedError{Written: written, Chunk: chunk, Err: err}
		}
		written += len(part)
		uc.logger.Debug("seed chunk committed", zap.Int("chunk", chunk), zap.Int("size", len(part)))

		switch {
		case uc.indexer == nil:
		case uc.syncIndex:
			uc.syncToIndex(ctx, part)
		default:
			uc.indexing.Add(1)
			go func() {
				defer uc.indexing.Done()
				uc.syncToIndex(context.Background(), part)
			}()
		}
	}

	uc.logger.Info("inventory seeded", zap.Int("items", written), zap.Int("chunks", chunk))
	return written, nil
}

func (uc *inventoryUseCase) syncToIndex(ctx context.Context, items []dto.SeedItem) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := uc.indexer.CreateIndex(ctx, uc.index, indexMapping); err != nil {
		uc.logger.Warn("failed to create inventory index", zap.String("index", uc.index), zap.Error(err))
	}

	docs := make(map[string]any, len(items))
	for _, item := range items {
		docs[inventory.SanitizeKey(item.Name)] = map[string]any{
			"name":     item.Name,
			"category": item.Category,
			"model":    item.Model,
		}
	}
	if err := uc.indexer.BulkIndex(ctx, uc.index, docs); err != nil {
		uc.logger.Error("failed to index inventory items", zap.Int("items", len(docs)), zap.Error(err))
		return
	}
	uc.invalidateSearch(ctx)
}

// Close waits for background indexing started by Seed, or until ctx ends.
func (uc *inventoryUseCase) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.indexing.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		uc.logger.Warn("inventory indexing still running at shutdown", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (uc *inventoryUseCase) FetchAll(ctx context.Context) ([]model.InventoryItem, error) {
	return uc.repo.FindAll(ctx)
}

func (uc *inventoryUseCase) Search(ctx context.Context, text string) ([]model.InventoryItem, error) {
	items, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return items, nil
	}

	if uc.indexer != nil {
		ids, err := uc.searchIDs(ctx, text)
		if err == nil {
			return pickByID(items, ids), nil
		}
		uc.logger.Warn("search index unavailable, filtering locally", zap.Error(err))
	}

	needle := strings.ToLower(text)
	var out []model.InventoryItem
	for _, item := range items {
		hay := strings.ToLower(item.Name + " " + item.Category + " " + item.Model)
		if strings.Contains(hay, needle) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (uc *inventoryUseCase) searchIDs(ctx context.Context, text string) ([]string, error) {
	query := strings.ToLower(text)
	if uc.cache != nil {
		var ids []string
		hit, err := uc.cache.Get(ctx, query, &ids)
		if err != nil {
			uc.logger.Debug("search cache read failed", zap.Error(err))
		}
		if hit {
			return ids, nil
		}
	}

	ids, err := uc.indexer.SearchIDs(ctx, uc.index, text, []string{"name", "category", "model"}, searchResultLimit)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, query, ids); err != nil {
			uc.logger.Debug("search cache write failed", zap.Error(err))
		}
	}
	return ids, nil
}

// invalidateSearch drops cached hits once new names are indexed.
func (uc *inventoryUseCase) invalidateSearch(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.logger.Warn("failed to invalidate search cache", zap.Error(err))
	}
}

func pickByID(items []model.InventoryItem, ids []string) []model.InventoryItem {
	byID := make(map[string]model.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]model.InventoryItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func (uc *inventoryUseCase) ApplyDelta(ctx context.Context, input *dto.AdjustStockInput) error {
	ids := dedupe(input.ItemIDs)
	if len(ids) == 0 {
		return nil
	}
	if input.Delta <= 0 {
		return inventory.ErrInvalidDelta
	}

	limit := input.MaxBatchSize
	if limit <= 0 || limit > maxAdjustItems {
		limit = maxAdjustItems
	}
	if len(ids) > limit {
		return fmt.Errorf("%d items, limit %d: %w", len(ids), limit, inventory.ErrBatchTooLarge)
	}

	movement := &model.StockMovement{
		ID:        uuid.New().String(),
		ItemIDs:   ids,
		Delta:     input.Delta,
		Reason:    input.Reason,
		CreatedBy: input.UserID,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.IncrementStock(ctx, movement); err != nil {
		uc.logger.Error("stock adjustment failed",
			zap.Int("items", len(ids)),
			zap.Int64("delta", input.Delta),
			zap.Error(err),
		)
		return err
	}

	uc.logger.Info("stock adjusted",
		zap.String("movement_id", movement.ID),
		zap.Int("items", len(ids)),
		zap.Int64("delta", input.Delta),
		zap.String("user_id", input.UserID),
	)
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, limit int) ([]model.StockMovement, error) {
	return uc.repo.ListMovements(ctx, limit)
}

func (uc *inventoryUseCase) Watch(ctx context.Context, fn func([]model.InventoryItem, error)) (func(), error) {
	return uc.repo.Watch(ctx, fn)
}
