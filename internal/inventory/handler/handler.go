package handler

import (
	"context"
	"errors"

	"github.com/fekuna/repairshop-service/internal/auth"
	"github.com/fekuna/repairshop-service/internal/inventory"
	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "repairshop.admin.v1.InventoryService"

const defaultMovementLimit = 50

// CatalogSource supplies the categories used to generate seed items.
type CatalogSource interface {
	Categories() []model.ServiceCategory
}

type InventoryHandler struct {
	uc      inventory.UseCase
	catalog CatalogSource
	logger  logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, catalog CatalogSource, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:      uc,
		catalog: catalog,
		logger:  log,
	}
}

func (h *InventoryHandler) Service() *rpc.Service {
	return rpc.NewService(ServiceName).
		Unary("Seed", h.Seed).
		Unary("List", h.List).
		Unary("Search", h.Search).
		Unary("AdjustStock", h.AdjustStock).
		Unary("ListMovements", h.ListMovements).
		ServerStream("Watch", h.Watch)
}

var invalidInput = []error{
	inventory.ErrInvalidDelta,
	inventory.ErrBatchTooLarge,
	inventory.ErrEmptyName,
}

func (h *InventoryHandler) Seed(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.SeedInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	items := input.Items
	if len(items) == 0 && input.FromCatalog {
		items = inventory.GenerateFromCatalog(h.catalog.Categories())
	}
	if len(items) == 0 {
		return nil, status.Error(codes.InvalidArgument, "no items to seed")
	}

	written, err := h.uc.Seed(ctx, items)
	if err != nil {
		var seedErr *inventory.SeedError
		if errors.As(err, &seedErr) {
			// Earlier chunks are durable; the caller needs the count to decide what to resend.
			st := status.New(codes.Aborted, seedErr.Error())
			if detailed, derr := st.WithDetails(mustStruct(map[string]any{
				"written": seedErr.Written,
				"chunk":   seedErr.Chunk,
			})); derr == nil {
				st = detailed
			}
			return nil, st.Err()
		}
		return nil, rpc.Status(err, invalidInput...)
	}
	return rpc.Encode(map[string]any{"written": written})
}

func (h *InventoryHandler) List(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := h.uc.FetchAll(ctx)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(map[string]any{"items": items})
}

func (h *InventoryHandler) Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input struct {
		Text string `json:"text"`
	}
	if err := rpc.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	items, err := h.uc.Search(ctx, input.Text)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(map[string]any{"items": items})
}

func (h *InventoryHandler) AdjustStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.AdjustStockInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	input.UserID = auth.GetUserID(ctx)

	if err := h.uc.ApplyDelta(ctx, &input); err != nil {
		return nil, rpc.Status(err, invalidInput...)
	}
	return &structpb.Struct{}, nil
}

func (h *InventoryHandler) ListMovements(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input struct {
		Limit int `json:"limit"`
	}
	if err := rpc.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if input.Limit <= 0 {
		input.Limit = defaultMovementLimit
	}
	movements, err := h.uc.ListMovements(ctx, input.Limit)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(map[string]any{"movements": movements})
}

// Watch streams a full snapshot of the inventory after every change until the client goes away.
func (h *InventoryHandler) Watch(ctx context.Context, _ *structpb.Struct, send func(*structpb.Struct) error) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	failed := make(chan error, 1)
	fail := func(err error) {
		select {
		case failed <- err:
		default:
		}
		stop()
	}

	cancel, err := h.uc.Watch(ctx, func(items []model.InventoryItem, err error) {
		if err != nil {
			fail(rpc.Status(err))
			return
		}
		msg, err := rpc.Encode(map[string]any{"items": items})
		if err == nil {
			err = send(msg)
		}
		if err != nil {
			fail(err)
		}
	})
	if err != nil {
		return rpc.Status(err)
	}
	defer cancel()

	h.logger.Debug("inventory watch started", zap.String("user_id", auth.GetUserID(ctx)))
	<-ctx.Done()

	select {
	case err := <-failed:
		return err
	default:
		return nil
	}
}

func mustStruct(m map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return &structpb.Struct{}
	}
	return s
}
