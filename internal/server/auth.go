package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/logger"
	"github.com/oggyb/matchmaker/internal/session"
)

// SessionLoader resolves a user id to its session.
type SessionLoader interface {
	Load(ctx context.Context, userID string) (session.Session, error)
}

// Auth attaches the acting user to every call.
//
// Behavior:
//   - Reads "authorization: Bearer <jwt>" from the incoming metadata.
//   - Loads the session of the token subject; banned users are rejected.
//   - Reflection calls skip authentication.
//   - Signup methods accept a valid token whose subject has no user row
//     yet; the session then carries the user id only.
type Auth struct {
	secret []byte
	loader SessionLoader
	log    *slog.Logger
	signup map[string]bool
}

func NewAuth(secret string, loader SessionLoader, log *slog.Logger) *Auth {
	return &Auth{secret: []byte(secret), loader: loader, log: log, signup: map[string]bool{}}
}

// AllowSignup marks full method names as callable before registration.
func (a *Auth) AllowSignup(methods ...string) *Auth {
	for _, m := range methods {
		a.signup[m] = true
	}
	return a
}

func (a *Auth) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if public(info.FullMethod) {
			return handler(ctx, req)
		}
		ctx, err := a.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func (a *Auth) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if public(info.FullMethod) {
			return handler(srv, ss)
		}
		ctx, err := a.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &sessionStream{ServerStream: ss, ctx: ctx})
	}
}

func (a *Auth) authenticate(ctx context.Context, method string) (context.Context, error) {
	token := bearer(ctx)
	if token == "" {
		return nil, svcErr.Unauthenticated("missing bearer token")
	}
	userID, err := session.ParseToken(a.secret, token)
	if err != nil {
		a.log.Debug("rejected token", "method", method, "err", err)
		return nil, svcErr.Unauthenticated("invalid token")
	}
	sess, err := a.loader.Load(ctx, userID)
	switch {
	case errors.Is(err, svcErr.ErrNotFound) && a.signup[method]:
		sess = session.Session{UserID: userID}
	case errors.Is(err, svcErr.ErrNotFound):
		return nil, svcErr.Unauthenticated("unknown user")
	case err != nil:
		a.log.Error("session load failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}
	if sess.IsBanned {
		return nil, svcErr.Map(svcErr.ErrPermissionDenied)
	}
	ctx = logger.IntoContext(ctx, logger.FromContext(ctx).With("user", sess.UserID))
	return session.NewContext(ctx, sess), nil
}

func bearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		if token, ok := strings.CutPrefix(v, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

func public(method string) bool {
	return strings.HasPrefix(method, "/grpc.reflection.")
}

// sessionStream overrides the stream context with the authenticated one.
type sessionStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *sessionStream) Context() context.Context { return s.ctx }

// Actor returns the acting user of an authenticated call.
func Actor(ctx context.Context) (session.Session, error) {
	s, ok := session.FromContext(ctx)
	if !ok || s.UserID == "" {
		return session.Session{}, svcErr.Unauthenticated("no session")
	}
	return s, nil
}

// AdminActor is Actor restricted to administrators.
func AdminActor(ctx context.Context) (session.Session, error) {
	s, err := Actor(ctx)
	if err != nil {
		return s, err
	}
	if !s.IsAdmin {
		return s, svcErr.Map(svcErr.ErrPermissionDenied)
	}
	return s, nil
}
