package repository

import (
	"context"
	"time"

	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/inventory"
	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	"github.com/fekuna/repairshop-service/internal/model"
)

const (
	ItemsCollection     = "inventory"
	MovementsCollection = "stock_movements"
)

type DocRepository struct {
	Store    docstore.Store
	Notifier docstore.Notifier
}

func NewDocRepository(store docstore.Store, notifier docstore.Notifier) *DocRepository {
	return &DocRepository{Store: store, Notifier: notifier}
}

func (r *DocRepository) SaveBatch(ctx context.Context, records []dto.SeedItem, createdAt time.Time) error {
	batch := r.Store.Batch()
	for _, rec := range records {
		fields := map[string]any{
			"name":      rec.Name,
			"category":  rec.Category,
			"model":     rec.Model,
			"price":     rec.Price,
			"cost":      rec.Cost,
			"stock":     inventory.ResolveStock(rec.Stock, rec.CurrentStock),
			"createdAt": docstore.FormatTime(createdAt),
		}
		batch.Set(ItemsCollection, inventory.SanitizeKey(rec.Name), fields, true)
	}
	return batch.Commit(ctx)
}

func (r *DocRepository) FindAll(ctx context.Context) ([]model.InventoryItem, error) {
	docs, err := r.Store.GetAll(ctx, ItemsCollection)
	if err != nil {
		return nil, err
	}
	return itemsFromDocuments(docs), nil
}

func (r *DocRepository) IncrementStock(ctx context.Context, m *model.StockMovement) error {
	batch := r.Store.Batch()
	for _, id := range m.ItemIDs {
		batch.Increment(ItemsCollection, id, "stock", m.Delta, "currentStock")
	}

	itemIDs := make([]any, len(m.ItemIDs))
	for i, id := range m.ItemIDs {
		itemIDs[i] = id
	}
	batch.Set(MovementsCollection, m.ID, map[string]any{
		"itemIds":   itemIDs,
		"delta":     m.Delta,
		"reason":    m.Reason,
		"createdBy": m.CreatedBy,
		"createdAt": docstore.FormatTime(m.CreatedAt),
	}, false)

	return batch.Commit(ctx)
}

func (r *DocRepository) ListMovements(ctx context.Context, limit int) ([]model.StockMovement, error) {
	docs, err := r.Store.Query(ctx, docstore.Query{
		Collection: MovementsCollection,
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.StockMovement, 0, len(docs))
	for _, doc := range docs {
		m := model.StockMovement{ID: doc.ID}
		m.Delta, _ = docstore.Int64(doc.Data, "delta")
		m.Reason, _ = docstore.String(doc.Data, "reason")
		m.CreatedBy, _ = docstore.String(doc.Data, "createdBy")
		m.CreatedAt, _ = docstore.Time(doc.Data, "createdAt")
		if ids, ok := doc.Data["itemIds"].([]any); ok {
			for _, id := range ids {
				if s, ok := id.(string); ok {
					m.ItemIDs = append(m.ItemIDs, s)
				}
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *DocRepository) Watch(ctx context.Context, fn func([]model.InventoryItem, error)) (func(), error) {
	q := docstore.Query{Collection: ItemsCollection}
	return docstore.Watch(ctx, r.Store, r.Notifier, q, func(docs []docstore.Document, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(itemsFromDocuments(docs), nil)
	})
}

func itemsFromDocuments(docs []docstore.Document) []model.InventoryItem {
	items := make([]model.InventoryItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, ItemFromDocument(doc))
	}
	return items
}

// ItemFromDocument normalizes a stored document, including legacy ones that carry
// currentStock instead of stock.
func ItemFromDocument(doc docstore.Document) model.InventoryItem {
	item := model.InventoryItem{ID: doc.ID}
	item.Name, _ = docstore.String(doc.Data, "name")
	item.Category, _ = docstore.String(doc.Data, "category")
	item.Model, _ = docstore.String(doc.Data, "model")
	item.Price, _ = docstore.Float64(doc.Data, "price")
	item.Cost, _ = docstore.Float64(doc.Data, "cost")
	item.CreatedAt, _ = docstore.Time(doc.Data, "createdAt")

	var stock, current *int64
	if v, ok := docstore.Int64(doc.Data, "stock"); ok {
		stock = &v
	}
	if v, ok := docstore.Int64(doc.Data, "currentStock"); ok {
		current = &v
	}
	item.Stock = inventory.ResolveStock(stock, current)
	return item
}
