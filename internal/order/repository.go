package order

import (
	"context"
	"time"

	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/order/dto"
)

type Repository interface {
	SaveOrder(ctx context.Context, o *model.Order) error
	// UpdateStatus merges the status into the order document, creating a stub if the
	// OrderCreated event has not arrived yet.
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	SavePayment(ctx context.Context, p *model.Payment) error

	ListOrders(ctx context.Context, filter *dto.OrderFilter) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListPayments(ctx context.Context, filter *dto.PaymentFilter) ([]model.Payment, error)
	WatchOrders(ctx context.Context, filter *dto.OrderFilter, fn func([]model.Order, error)) (func(), error)
}
