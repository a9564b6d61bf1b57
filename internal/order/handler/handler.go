package handler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/order"
	"github.com/fekuna/repairshop-service/internal/order/dto"
	"github.com/fekuna/repairshop-service/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "repairshop.admin.v1.OrderService"

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) Service() *rpc.Service {
	return rpc.NewService(ServiceName).
		Unary("ListOrders", h.ListOrders).
		Unary("GetOrder", h.GetOrder).
		Unary("ListPayments", h.ListPayments).
		Unary("ExportOrders", h.ExportOrders).
		Unary("ExportPayments", h.ExportPayments).
		ServerStream("WatchOrders", h.WatchOrders)
}

func (h *OrderHandler) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filter dto.OrderFilter
	if err := rpc.Decode(req, &filter); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	orders, err := h.uc.ListOrders(ctx, &filter)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(map[string]any{"orders": orders})
}

func (h *OrderHandler) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input struct {
		ID string `json:"id"`
	}
	if err := rpc.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if input.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	o, err := h.uc.GetOrder(ctx, input.ID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	payments, err := h.uc.ListPayments(ctx, &dto.PaymentFilter{OrderID: o.ID})
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(map[string]any{"order": o, "payments": payments})
}

func (h *OrderHandler) ListPayments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filter dto.PaymentFilter
	if err := rpc.Decode(req, &filter); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	payments, err := h.uc.ListPayments(ctx, &filter)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(map[string]any{"payments": payments})
}

// ExportOrders returns the workbook bytes base64 encoded under "content".
func (h *OrderHandler) ExportOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filter dto.OrderFilter
	if err := rpc.Decode(req, &filter); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var buf bytes.Buffer
	n, err := h.uc.ExportOrders(ctx, &buf, &filter)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return exportResponse("orders", n, buf.Bytes())
}

func (h *OrderHandler) ExportPayments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filter dto.PaymentFilter
	if err := rpc.Decode(req, &filter); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var buf bytes.Buffer
	n, err := h.uc.ExportPayments(ctx, &buf, &filter)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return exportResponse("payments", n, buf.Bytes())
}

func exportResponse(kind string, rows int, content []byte) (*structpb.Struct, error) {
	return rpc.Encode(map[string]any{
		"filename": fmt.Sprintf("%s-%s.xlsx", kind, time.Now().Format("20060102-150405")),
		"rows":     rows,
		"content":  content,
	})
}

func (h *OrderHandler) WatchOrders(ctx context.Context, req *structpb.Struct, send func(*structpb.Struct) error) error {
	var filter dto.OrderFilter
	if err := rpc.Decode(req, &filter); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	failed := make(chan error, 1)

	cancel, err := h.uc.WatchOrders(ctx, &filter, func(orders []model.Order, err error) {
		var msg *structpb.Struct
		if err == nil {
			msg, err = rpc.Encode(map[string]any{"orders": orders})
		}
		if err == nil {
			err = send(msg)
		}
		if err != nil {
			select {
			case failed <- rpc.Status(err):
			default:
			}
			stop()
		}
	})
	if err != nil {
		return rpc.Status(err)
	}
	defer cancel()

	<-ctx.Done()
	select {
	case err := <-failed:
		return err
	default:
		return nil
	}
}
