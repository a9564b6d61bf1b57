package rpc

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status converts err into a gRPC status error. Errors that already carry a status
// pass through; invalid lists sentinels reported as InvalidArgument.
func Status(err error, invalid ...error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	for _, target := range invalid {
		if errors.Is(err, target) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// UnaryLogger logs every call with its duration and final code, and turns panics into Internal.
func UnaryLogger(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in grpc handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal error")
			}
			logCall(log, info.FullMethod, start, err)
		}()
		return handler(ctx, req)
	}
}

func StreamLogger(log logger.ZapLogger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in grpc stream",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal error")
			}
			logCall(log, info.FullMethod, start, err)
		}()
		return handler(srv, ss)
	}
}

func logCall(log logger.ZapLogger, method string, start time.Time, err error) {
	code := status.Code(err)
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("code", code.String()),
		zap.Duration("duration", time.Since(start)),
	}
	switch code {
	case codes.OK:
		log.Debug("grpc call", fields...)
	case codes.Internal, codes.Unknown, codes.DataLoss:
		log.Error("grpc call failed", append(fields, zap.Error(err))...)
	default:
		log.Info("grpc call rejected", append(fields, zap.Error(err))...)
	}
}
