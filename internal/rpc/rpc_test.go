package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type greeting struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func dial(t *testing.T, svc *Service) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(UnaryLogger(logger.NewNop())),
		grpc.StreamInterceptor(StreamLogger(logger.NewNop())),
	)
	svc.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestUnaryRoundTrip(t *testing.T) {
	svc := NewService("test.v1.Greeter").
		Unary("Hello", func(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			var in greeting
			if err := Decode(req, &in); err != nil {
				return nil, err
			}
			in.Count++
			in.Tags = append(in.Tags, "seen")
			return Encode(in)
		}).
		Unary("Fail", func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return nil, Status(fmt.Errorf("lookup: %w", docstore.ErrNotFound))
		}).
		Unary("Panic", func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			panic("boom")
		})
	conn := dial(t, svc)
	ctx := context.Background()

	req, err := Encode(greeting{Name: "ana", Count: 1})
	require.NoError(t, err)
	resp := &structpb.Struct{}
	require.NoError(t, conn.Invoke(ctx, "/test.v1.Greeter/Hello", req, resp))

	var out greeting
	require.NoError(t, Decode(resp, &out))
	assert.Equal(t, greeting{Name: "ana", Count: 2, Tags: []string{"seen"}}, out)

	err = conn.Invoke(ctx, "/test.v1.Greeter/Fail", req, resp)
	assert.Equal(t, codes.NotFound, status.Code(err))

	err = conn.Invoke(ctx, "/test.v1.Greeter/Panic", req, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestServerStream(t *testing.T) {
	svc := NewService("test.v1.Counter").
		ServerStream("Count", func(_ context.Context, req *structpb.Struct, send func(*structpb.Struct) error) error {
			var in greeting
			if err := Decode(req, &in); err != nil {
				return err
			}
			for i := 0; i < in.Count; i++ {
				msg, err := Encode(greeting{Name: in.Name, Count: i})
				if err != nil {
					return err
				}
				if err := send(msg); err != nil {
					return err
				}
			}
			return nil
		})
	conn := dial(t, svc)

	desc := &grpc.StreamDesc{StreamName: "Count", ServerStreams: true}
	stream, err := conn.NewStream(context.Background(), desc, "/test.v1.Counter/Count")
	require.NoError(t, err)

	req, err := Encode(greeting{Name: "x", Count: 3})
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(req))
	require.NoError(t, stream.CloseSend())

	var got []int
	for {
		msg := &structpb.Struct{}
		if err := stream.RecvMsg(msg); err != nil {
			break
		}
		var out greeting
		require.NoError(t, Decode(msg, &out))
		got = append(got, out.Count)
	}
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestStatusMapping(t *testing.T) {
	invalid := errors.New("bad input")

	assert.NoError(t, Status(nil))
	assert.Equal(t, codes.InvalidArgument, status.Code(Status(fmt.Errorf("x: %w", invalid), invalid)))
	assert.Equal(t, codes.NotFound, status.Code(Status(docstore.ErrNotFound)))
	assert.Equal(t, codes.Canceled, status.Code(Status(context.Canceled)))
	assert.Equal(t, codes.Internal, status.Code(Status(errors.New("db down"))))

	already := status.Error(codes.PermissionDenied, "no")
	assert.Equal(t, already, Status(already))
}

func TestEncodeRejectsNonObjects(t *testing.T) {
	_, err := Encode([]int{1, 2})
	assert.Error(t, err)
}
