package order

import (
	"context"
	"io"

	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/order/dto"
)

type UseCase interface {
	HandleEvent(ctx context.Context, event *dto.Event) error

	ListOrders(ctx context.Context, filter *dto.OrderFilter) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListPayments(ctx context.Context, filter *dto.PaymentFilter) ([]model.Payment, error)
	WatchOrders(ctx context.Context, filter *dto.OrderFilter, fn func([]model.Order, error)) (func(), error)

	ExportOrders(ctx context.Context, w io.Writer, filter *dto.OrderFilter) (int, error)
	ExportPayments(ctx context.Context, w io.Writer, filter *dto.PaymentFilter) (int, error)
}
