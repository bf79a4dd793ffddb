package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/callfirst/internal/api"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// Authenticator resolves a session token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// publicPrefixes are whole services callable without a session.
var publicPrefixes = []string{
	"/grpc.health.v1.",
	"/grpc.reflection.",
}

func isPublic(method string) bool {
	if api.PublicMethods[method] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// AuthInterceptor requires a valid "authorization: Bearer <token>" header on
// every non-public method and puts the session's user id on the context
// (see api.ActorFrom).
func AuthInterceptor(auth Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if isPublic(info.FullMethod) {
			return handler(ctx, req)
		}
		userID, err := auth.Authenticate(ctx, bearerToken(ctx))
		if err != nil {
			return nil, svcErr.Map(err)
		}
		return handler(api.WithActor(ctx, userID), req)
	}
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(api.AuthorizationKey) {
		scheme, token, found := strings.Cut(v, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// RecoveryInterceptor turns handler panics into Internal errors and reports
// them to the log and to Sentry.
func RecoveryInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetTag("grpc.method", info.FullMethod)
				hub.Recover(r)
				log.Error("panic in handler", "method", info.FullMethod, "panic", fmt.Sprint(r))
				err = status.Error(codes.Internal, "something went wrong, please retry")
			}
		}()

		return handler(ctx, req)
	}
}
