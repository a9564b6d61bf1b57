package repository

import (
	"context"
	"time"

	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/order/dto"
)

const (
	OrdersCollection   = "orders"
	PaymentsCollection = "payments"
)

type DocRepository struct {
	Store    docstore.Store
	Notifier docstore.Notifier
}

func NewDocRepository(store docstore.Store, notifier docstore.Notifier) *DocRepository {
	return &DocRepository{Store: store, Notifier: notifier}
}

func (r *DocRepository) SaveOrder(ctx context.Context, o *model.Order) error {
	batch := r.Store.Batch()
	batch.Set(OrdersCollection, o.ID, map[string]any{
		"customer":  o.Customer,
		"phone":     o.Phone,
		"model":     o.Model,
		"service":   o.Service,
		"price":     o.Price,
		"status":    o.Status,
		"createdAt": docstore.FormatTime(o.CreatedAt),
	}, true)
	return batch.Commit(ctx)
}

func (r *DocRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	batch := r.Store.Batch()
	batch.Set(OrdersCollection, id, map[string]any{
		"status":    status,
		"updatedAt": docstore.FormatTime(at),
	}, true)
	return batch.Commit(ctx)
}

func (r *DocRepository) SavePayment(ctx context.Context, p *model.Payment) error {
	batch := r.Store.Batch()
	batch.Set(PaymentsCollection, p.ID, map[string]any{
		"orderId": p.OrderID,
		"amount":  p.Amount,
		"method":  p.Method,
		"status":  p.Status,
		"paidAt":  docstore.FormatTime(p.PaidAt),
	}, true)
	return batch.Commit(ctx)
}

func ordersQuery(filter *dto.OrderFilter) docstore.Query {
	q := docstore.Query{
		Collection: OrdersCollection,
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
	}
	if filter != nil {
		if filter.Status != "" {
			q.Where = append(q.Where, docstore.Filter{Field: "status", Value: filter.Status})
		}
		q.Limit = filter.Limit
	}
	return q
}

func (r *DocRepository) ListOrders(ctx context.Context, filter *dto.OrderFilter) ([]model.Order, error) {
	docs, err := r.Store.Query(ctx, ordersQuery(filter))
	if err != nil {
		return nil, err
	}
	return ordersFromDocuments(docs), nil
}

func (r *DocRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	doc, err := r.Store.Get(ctx, OrdersCollection, id)
	if err != nil {
		return nil, err
	}
	o := orderFromDocument(*doc)
	return &o, nil
}

func (r *DocRepository) ListPayments(ctx context.Context, filter *dto.PaymentFilter) ([]model.Payment, error) {
	q := docstore.Query{
		Collection: PaymentsCollection,
		OrderBy:    "paidAt",
		Direction:  docstore.Desc,
	}
	if filter != nil {
		if filter.OrderID != "" {
			q.Where = append(q.Where, docstore.Filter{Field: "orderId", Value: filter.OrderID})
		}
		q.Limit = filter.Limit
	}

	docs, err := r.Store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]model.Payment, 0, len(docs))
	for _, doc := range docs {
		p := model.Payment{ID: doc.ID}
		p.OrderID, _ = docstore.String(doc.Data, "orderId")
		p.Amount, _ = docstore.Float64(doc.Data, "amount")
		p.Method, _ = docstore.String(doc.Data, "method")
		p.Status, _ = docstore.String(doc.Data, "status")
		p.PaidAt, _ = docstore.Time(doc.Data, "paidAt")
		out = append(out, p)
	}
	return out, nil
}

func (r *DocRepository) WatchOrders(ctx context.Context, filter *dto.OrderFilter, fn func([]model.Order, error)) (func(), error) {
	return docstore.Watch(ctx, r.Store, r.Notifier, ordersQuery(filter), func(docs []docstore.Document, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(ordersFromDocuments(docs), nil)
	})
}

func ordersFromDocuments(docs []docstore.Document) []model.Order {
	out := make([]model.Order, 0, len(docs))
	for _, doc := range docs {
		out = append(out, orderFromDocument(doc))
	}
	return out
}

func orderFromDocument(doc docstore.Document) model.Order {
	o := model.Order{ID: doc.ID}
	o.Customer, _ = docstore.String(doc.Data, "customer")
	o.Phone, _ = docstore.String(doc.Data, "phone")
	o.Model, _ = docstore.String(doc.Data, "model")
	o.Service, _ = docstore.String(doc.Data, "service")
	o.Price, _ = docstore.Float64(doc.Data, "price")
	o.Status, _ = docstore.String(doc.Data, "status")
	o.CreatedAt, _ = docstore.Time(doc.Data, "createdAt")
	return o
}
