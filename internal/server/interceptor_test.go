package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/callfirst/internal/api"
	svcErr "github.com/oggyb/callfirst/internal/errors"
	"github.com/oggyb/callfirst/internal/logger"
)

type staticAuth map[string]string

func (a staticAuth) Authenticate(_ context.Context, token string) (string, error) {
	if id, ok := a[token]; ok {
		return id, nil
	}
	return "", svcErr.Unauthenticated("session is invalid or expired")
}

func incoming(auth string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(api.AuthorizationKey, auth))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken(incoming("Bearer abc")))
	assert.Equal(t, "abc", bearerToken(incoming("bearer  abc")))
	assert.Empty(t, bearerToken(incoming("Basic abc")))
	assert.Empty(t, bearerToken(incoming("abc")))
	assert.Empty(t, bearerToken(context.Background()))
}

func TestIsPublic(t *testing.T) {
	assert.True(t, isPublic("/"+api.IdentityServiceName+"/SignUp"))
	assert.True(t, isPublic("/grpc.health.v1.Health/Check"))
	assert.True(t, isPublic("/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"))
	assert.False(t, isPublic("/"+api.IdentityServiceName+"/EndSession"))
	assert.False(t, isPublic("/"+api.CallServiceName+"/JoinCall"))
}

func TestAuthInterceptor(t *testing.T) {
	intercept := AuthInterceptor(staticAuth{"tok": "alex"})
	var seen string
	handler := func(ctx context.Context, _ any) (any, error) {
		seen = api.ActorFrom(ctx)
		return "ok", nil
	}
	private := &grpc.UnaryServerInfo{FullMethod: "/" + api.CallServiceName + "/JoinCall"}
	public := &grpc.UnaryServerInfo{FullMethod: "/" + api.IdentityServiceName + "/SignUp"}

	resp, err := intercept(incoming("Bearer tok"), nil, private, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "alex", seen)

	_, err = intercept(incoming("Bearer nope"), nil, private, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = intercept(context.Background(), nil, private, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	seen = "unset"
	_, err = intercept(context.Background(), nil, public, handler)
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestRecoveryInterceptor(t *testing.T) {
	intercept := RecoveryInterceptor(logger.Discard())
	info := &grpc.UnaryServerInfo{FullMethod: "/" + api.CallServiceName + "/EndCall"}

	_, err := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))

	want := errors.New("plain")
	_, err = intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, want
	})
	assert.Same(t, want, err)
}
