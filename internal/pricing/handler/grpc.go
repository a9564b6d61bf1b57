package handler

import (
	"context"
	"errors"

	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/pricing"
	"github.com/fekuna/repairshop-service/internal/pricing/dto"
	"github.com/fekuna/repairshop-service/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is public: quotes are shown to customers without signing in.
const ServiceName = "repairshop.admin.v1.PricingService"

type PricingHandler struct {
	uc     pricing.UseCase
	logger logger.ZapLogger
}

func NewPricingHandler(uc pricing.UseCase, log logger.ZapLogger) *PricingHandler {
	return &PricingHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *PricingHandler) Service() *rpc.Service {
	return rpc.NewService(ServiceName).
		Unary("ListCategories", h.ListCategories).
		Unary("Quote", h.Quote)
}

func (h *PricingHandler) ListCategories(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Encode(map[string]any{"categories": h.uc.ListCategories(ctx)})
}

func (h *PricingHandler) Quote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.QuoteInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	quote, err := h.uc.Quote(ctx, &input)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownCategory) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, rpc.Status(err)
	}
	return rpc.Encode(quote)
}
