package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/matchmaker/internal/logger"
	"github.com/oggyb/matchmaker/internal/metrics"
)

// Logging is the outermost interceptor. It stores a request logger tagged
// with the method in the context and records every call's outcome.
func Logging(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqLog := log.With("method", info.FullMethod)
		resp, err := handler(logger.IntoContext(ctx, reqLog), req)
		observeCall(reqLog, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamLogging is Logging for streams; the call ends when the stream does.
func StreamLogging(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		reqLog := log.With("method", info.FullMethod)
		ctx := logger.IntoContext(ss.Context(), reqLog)
		err := handler(srv, &sessionStream{ServerStream: ss, ctx: ctx})
		observeCall(reqLog, info.FullMethod, start, err)
		return err
	}
}

func observeCall(log *slog.Logger, method string, start time.Time, err error) {
	elapsed := time.Since(start)
	code := status.Code(err)
	metrics.RPCDuration.WithLabelValues(method, code.String()).Observe(elapsed.Seconds())

	switch code {
	case codes.OK:
		log.Debug("rpc done", "duration", elapsed)
	case codes.Internal, codes.Unavailable, codes.Aborted, codes.Unknown:
		log.Error("rpc failed", "code", code.String(), "duration", elapsed, "err", err)
	default:
		log.Info("rpc rejected", "code", code.String(), "duration", elapsed, "err", err)
	}
}
