package handler

import (
	"context"
	"errors"

	"github.com/fekuna/repairshop-service/internal/auth"
	"github.com/fekuna/repairshop-service/internal/auth/dto"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "repairshop.admin.v1.AuthService"

// SignInMethod is reachable without a token.
const SignInMethod = "/" + ServiceName + "/SignIn"

type AuthHandler struct {
	uc     auth.UseCase
	logger logger.ZapLogger
}

func NewAuthHandler(uc auth.UseCase, log logger.ZapLogger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *AuthHandler) Service() *rpc.Service {
	return rpc.NewService(ServiceName).
		Unary("SignIn", h.SignIn).
		Unary("SignOut", h.SignOut).
		Unary("Me", h.Me)
}

func (h *AuthHandler) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.SignInInput
	if err := rpc.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if input.Email == "" || input.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	session, err := h.uc.SignIn(ctx, &input)
	if err != nil {
		return nil, toStatus(err)
	}
	return rpc.Encode(session)
}

func (h *AuthHandler) SignOut(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := h.uc.SignOut(ctx, auth.BearerToken(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (h *AuthHandler) Me(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	staff, err := h.uc.Me(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return rpc.Encode(dto.UserFromStaff(staff))
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenRevoked),
		errors.Is(err, auth.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	}
	return rpc.Status(err)
}
