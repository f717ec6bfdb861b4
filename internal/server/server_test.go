package server_test

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/server"
	"github.com/oggyb/matchmaker/internal/session"
	"github.com/oggyb/matchmaker/internal/testutil"
)

const (
	secret      = "test-secret"
	testService = "test.v1.Echo"
)

type fakeLoader map[string]session.Session

func (f fakeLoader) Load(_ context.Context, userID string) (session.Session, error) {
	s, ok := f[userID]
	if !ok {
		return session.Session{}, svcErr.NotFound("user %s", userID)
	}
	return s, nil
}

type whoamiResponse struct {
	UserID string `json:"userId"`
	Admin  bool   `json:"admin"`
}

type countRequest struct {
	N int `json:"n"`
}

type countResponse struct {
	I int `json:"i"`
}

type echoService struct{}

func (echoService) Register(s *grpc.Server) {
	whoami := func(ctx context.Context, _ *server.Empty) (*whoamiResponse, error) {
		a, err := server.Actor(ctx)
		if err != nil {
			return nil, err
		}
		return &whoamiResponse{UserID: a.UserID, Admin: a.IsAdmin}, nil
	}
	s.RegisterService(server.NewServiceDesc(testService, []grpc.MethodDesc{
		server.Unary(testService, "Whoami", whoami),
		server.Unary(testService, "Signup", whoami),
		server.Unary(testService, "AdminOnly", func(ctx context.Context, _ *server.Empty) (*server.Empty, error) {
			_, err := server.AdminActor(ctx)
			return &server.Empty{}, err
		}),
		server.Unary(testService, "Missing", func(ctx context.Context, _ *server.Empty) (*server.Empty, error) {
			return nil, svcErr.NotFound("match %s", "m1")
		}),
		server.Unary(testService, "Count", func(ctx context.Context, req *countRequest) (*countResponse, error) {
			return &countResponse{I: req.N}, nil
		}),
	}, server.ServerStream("Stream", func(ctx context.Context, req *countRequest, send server.Sender[countResponse]) error {
		if _, err := server.Actor(ctx); err != nil {
			return err
		}
		for i := 0; i < req.N; i++ {
			if err := send(&countResponse{I: i}); err != nil {
				return err
			}
		}
		return nil
	})), echoService{})
}

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()

	loader := fakeLoader{
		"ana":    {UserID: "ana", Name: "Ana"},
		"admin":  {UserID: "admin", IsAdmin: true},
		"banned": {UserID: "banned", IsBanned: true},
	}
	log := testutil.Logger()
	srv := server.NewGRPCServer(log, server.NewAuth(secret, loader, log).AllowSignup("/"+testService+"/Signup"), echoService{})

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func as(t *testing.T, userID string) context.Context {
	t.Helper()
	tok, err := session.IssueToken([]byte(secret), userID, time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func call(ctx context.Context, conn *grpc.ClientConn, method string, in map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	err = conn.Invoke(ctx, "/"+testService+"/"+method, req, out)
	return out, err
}

func TestUnaryCarriesSession(t *testing.T) {
	conn := dial(t)

	out, err := call(as(t, "ana"), conn, "Whoami", nil)
	require.NoError(t, err)
	assert.Equal(t, "ana", out.Fields["userId"].GetStringValue())
	assert.False(t, out.Fields["admin"].GetBoolValue())
}

func TestAuthRejections(t *testing.T) {
	conn := dial(t)

	_, err := call(context.Background(), conn, "Whoami", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer nope")
	_, err = call(bad, conn, "Whoami", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = call(as(t, "ghost"), conn, "Whoami", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = call(as(t, "banned"), conn, "Whoami", nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestSignupAcceptsUnknownUser(t *testing.T) {
	conn := dial(t)

	out, err := call(as(t, "ghost"), conn, "Signup", nil)
	require.NoError(t, err)
	assert.Equal(t, "ghost", out.Fields["userId"].GetStringValue())

	out, err = call(as(t, "ana"), conn, "Signup", nil)
	require.NoError(t, err)
	assert.Equal(t, "ana", out.Fields["userId"].GetStringValue())

	// only the signup method is open to unknown users
	_, err = call(as(t, "ghost"), conn, "Whoami", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = call(context.Background(), conn, "Signup", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = call(as(t, "banned"), conn, "Signup", nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestAdminOnly(t *testing.T) {
	conn := dial(t)

	_, err := call(as(t, "ana"), conn, "AdminOnly", nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = call(as(t, "admin"), conn, "AdminOnly", nil)
	assert.NoError(t, err)
}

func TestDomainErrorsAreMapped(t *testing.T) {
	conn := dial(t)

	_, err := call(as(t, "ana"), conn, "Missing", nil)
	assert.Equal(t, codes.NotFound, status.Code(err))

	// a string where a number is expected fails decoding
	_, err = call(as(t, "ana"), conn, "Count", map[string]any{"n": "three"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	out, err := call(as(t, "ana"), conn, "Count", map[string]any{"n": 3})
	require.NoError(t, err)
	assert.EqualValues(t, 3, out.Fields["i"].GetNumberValue())
}

func TestServerStream(t *testing.T) {
	conn := dial(t)

	desc := &grpc.StreamDesc{StreamName: "Stream", ServerStreams: true}
	stream, err := conn.NewStream(as(t, "ana"), desc, "/"+testService+"/Stream")
	require.NoError(t, err)

	req, err := structpb.NewStruct(map[string]any{"n": 3})
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(req))
	require.NoError(t, stream.CloseSend())

	var got []float64
	for {
		out := &structpb.Struct{}
		err := stream.RecvMsg(out)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, out.Fields["i"].GetNumberValue())
	}
	assert.Equal(t, []float64{0, 1, 2}, got)
}

func TestServerStreamRequiresToken(t *testing.T) {
	conn := dial(t)

	desc := &grpc.StreamDesc{StreamName: "Stream", ServerStreams: true}
	stream, err := conn.NewStream(context.Background(), desc, "/"+testService+"/Stream")
	require.NoError(t, err)

	req, err := structpb.NewStruct(map[string]any{"n": 1})
	require.NoError(t, err)
	_ = stream.SendMsg(req)
	_ = stream.CloseSend()

	err = stream.RecvMsg(&structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
