package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// Requests and responses travel as google.protobuf.Struct. Handlers work on
// plain Go structs; Decode and Encode convert through their JSON tags.

// Decode copies a Struct payload into v.
func Decode(in *structpb.Struct, v any) error {
	if in == nil {
		return nil
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// Encode converts v, which must marshal to a JSON object, into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return out, nil
}

// Empty is the request or response of calls that carry nothing.
type Empty struct{}

// Unary builds the descriptor of a unary method of service. Domain errors
// returned by fn are mapped to gRPC status codes.
//
// Example:
//
//	server.Unary("matchmaker.v1.MatchService", "Unmatch", h.unmatch)
func Unary[Req, Resp any](service, method string, fn func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, raw any) (any, error) {
				var req Req
				if err := Decode(raw.(*structpb.Struct), &req); err != nil {
					return nil, svcErr.InvalidArgument(err.Error())
				}
				resp, err := fn(ctx, &req)
				if err != nil {
					return nil, svcErr.Map(err)
				}
				return Encode(resp)
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, call)
		},
	}
}

// Sender is the write side of a server stream.
type Sender[Resp any] func(*Resp) error

// ServerStream builds the descriptor of a server-streaming method. fn gets the
// decoded request and a send function; it returns when the stream is done.
func ServerStream[Req, Resp any](method string, fn func(context.Context, *Req, Sender[Resp]) error) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName:    method,
		ServerStreams: true,
		Handler: func(_ any, stream grpc.ServerStream) error {
			in := new(structpb.Struct)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			var req Req
			if err := Decode(in, &req); err != nil {
				return svcErr.InvalidArgument(err.Error())
			}
			send := func(resp *Resp) error {
				out, err := Encode(resp)
				if err != nil {
					return err
				}
				return stream.SendMsg(out)
			}
			return svcErr.Map(fn(stream.Context(), &req, send))
		},
	}
}

// NewServiceDesc assembles a service descriptor for handwritten handlers.
func NewServiceDesc(name string, methods []grpc.MethodDesc, streams ...grpc.StreamDesc) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*any)(nil),
		Methods:     methods,
		Streams:     streams,
		Metadata:    "matchmaker",
	}
}
