package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fekuna/repairshop-service/internal/export"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/order"
	"github.com/fekuna/repairshop-service/internal/order/dto"
	"go.uber.org/zap"
)

type orderUseCase struct {
	repo   order.Repository
	logger logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *orderUseCase) HandleEvent(ctx context.Context, event *dto.Event) error {
	switch event.EventType {
	case dto.EventOrderCreated:
		var o model.Order
		if err := decode(event.Payload, &o); err != nil {
			return err
		}
		if o.ID == "" {
			return order.ErrMissingID
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = event.Timestamp
		}
		if o.Status == "" {
			o.Status = "open"
		}
		return uc.repo.SaveOrder(ctx, &o)

	case dto.EventOrderStatusChanged:
		var p dto.StatusChangedPayload
		if err := decode(event.Payload, &p); err != nil {
			return err
		}
		if p.ID == "" {
			return order.ErrMissingID
		}
		at := event.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		return uc.repo.UpdateStatus(ctx, p.ID, strings.TrimSpace(p.Status), at)

	case dto.EventPaymentRecorded:
		var p model.Payment
		if err := decode(event.Payload, &p); err != nil {
			return err
		}
		if p.ID == "" {
			return order.ErrMissingID
		}
		if p.PaidAt.IsZero() {
			p.PaidAt = event.Timestamp
		}
		return uc.repo.SavePayment(ctx, &p)
	}
	return fmt.Errorf("%q: %w", event.EventType, order.ErrUnknownEvent)
}

func decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", order.ErrInvalidEvent, err)
	}
	return nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filter *dto.OrderFilter) ([]model.Order, error) {
	return uc.repo.ListOrders(ctx, filter)
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return uc.repo.GetOrder(ctx, id)
}

func (uc *orderUseCase) ListPayments(ctx context.Context, filter *dto.PaymentFilter) ([]model.Payment, error) {
	return uc.repo.ListPayments(ctx, filter)
}

func (uc *orderUseCase) WatchOrders(ctx context.Context, filter *dto.OrderFilter, fn func([]model.Order, error)) (func(), error) {
	return uc.repo.WatchOrders(ctx, filter, fn)
}

func (uc *orderUseCase) ExportOrders(ctx context.Context, w io.Writer, filter *dto.OrderFilter) (int, error) {
	orders, err := uc.repo.ListOrders(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := export.WriteOrders(w, orders); err != nil {
		uc.logger.Error("order export failed", zap.Int("orders", len(orders)), zap.Error(err))
		return 0, err
	}
	uc.logger.Info("orders exported", zap.Int("orders", len(orders)))
	return len(orders), nil
}

func (uc *orderUseCase) ExportPayments(ctx context.Context, w io.Writer, filter *dto.PaymentFilter) (int, error) {
	payments, err := uc.repo.ListPayments(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := export.WritePayments(w, payments); err != nil {
		uc.logger.Error("payment export failed", zap.Int("payments", len(payments)), zap.Error(err))
		return 0, err
	}
	uc.logger.Info("payments exported", zap.Int("payments", len(payments)))
	return len(payments), nil
}
