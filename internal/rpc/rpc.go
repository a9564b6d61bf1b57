// Package rpc builds gRPC service descriptors whose messages are google.protobuf.Struct.
// Handlers exchange plain Go values; Encode and Decode convert through their JSON form.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type UnaryFunc func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// StreamFunc serves a server-streaming method. send writes one message to the client.
type StreamFunc func(ctx context.Context, req *structpb.Struct, send func(*structpb.Struct) error) error

type Service struct {
	name    string
	methods []grpc.MethodDesc
	streams []grpc.StreamDesc
}

func NewService(name string) *Service {
	return &Service{name: name}
}

func (s *Service) Unary(method string, fn UnaryFunc) *Service {
	fullMethod := "/" + s.name + "/" + method
	s.methods = append(s.methods, grpc.MethodDesc{
		MethodName: method,
		Handler: func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := &structpb.Struct{}
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(ctx, req)
			}
			info := &grpc.UnaryServerInfo{FullMethod: fullMethod}
			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return fn(ctx, req.(*structpb.Struct))
			})
		},
	})
	return s
}

func (s *Service) ServerStream(method string, fn StreamFunc) *Service {
	s.streams = append(s.streams, grpc.StreamDesc{
		StreamName:    method,
		ServerStreams: true,
		Handler: func(_ any, stream grpc.ServerStream) error {
			req := &structpb.Struct{}
			if err := stream.RecvMsg(req); err != nil {
				return err
			}
			return fn(stream.Context(), req, func(m *structpb.Struct) error {
				return stream.SendMsg(m)
			})
		},
	})
	return s
}

func (s *Service) Name() string { return s.name }

func (s *Service) Desc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: s.name,
		HandlerType: (*any)(nil),
		Methods:     s.methods,
		Streams:     s.streams,
		Metadata:    s.name,
	}
}

func (s *Service) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(s.Desc(), struct{}{})
}

// Encode converts v to a Struct through its JSON encoding. v must encode as a JSON object.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode: %w", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("rpc: encode: %w", err)
	}
	return out, nil
}

// Decode fills out from the JSON form of s.
func Decode(s *structpb.Struct, out any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	raw, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("rpc: decode: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("rpc: decode: %w", err)
	}
	return nil
}
