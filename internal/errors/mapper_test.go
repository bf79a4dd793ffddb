package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/callfirst/internal/errors"
)

func TestTypedErrorsMatchTheirKind(t *testing.T) {
	err := svcErr.InvalidInput("must be 18+")
	assert.True(t, errors.Is(err, svcErr.ErrInvalidInput))
	assert.False(t, errors.Is(err, svcErr.ErrConflict))
	assert.Equal(t, "must be 18+", err.Error())

	wrapped := fmt.Errorf("create profile: %w", err)
	assert.True(t, errors.Is(wrapped, svcErr.ErrInvalidInput))
	assert.Equal(t, "must be 18+", svcErr.Message(wrapped, "fallback"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := svcErr.Wrap(svcErr.ErrConflict, cause, "match exists")

	assert.True(t, errors.Is(err, svcErr.ErrConflict))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "match exists: disk full", err.Error())
}

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		in   error
		code codes.Code
		msg  string
	}{
		{"unauthenticated", svcErr.Unauthenticated("no session"), codes.Unauthenticated, "no session"},
		{"permission", svcErr.PermissionDenied("not yours"), codes.PermissionDenied, "not yours"},
		{"invalid", svcErr.InvalidInput("must be 18+"), codes.InvalidArgument, "must be 18+"},
		{"precondition", svcErr.Precondition("no proposal"), codes.FailedPrecondition, "no proposal"},
		{"conflict", svcErr.Conflict("match blocked"), codes.AlreadyExists, "match blocked"},
		{"not found", svcErr.Wrap(svcErr.ErrNotFound, gorm.ErrRecordNotFound, "profile p1 not found"), codes.NotFound, "profile p1 not found"},
		{"gorm not found", gorm.ErrRecordNotFound, codes.NotFound, "record not found"},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, "request timed out"},
		{"canceled", context.Canceled, codes.Canceled, "request was canceled"},
		{"internal", errors.New("connection reset by peer"), codes.Internal, "something went wrong, please retry"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(svcErr.Map(tc.in))
			assert.True(t, ok)
			assert.Equal(t, tc.code, st.Code())
			assert.Equal(t, tc.msg, st.Message())
		})
	}

	assert.Nil(t, svcErr.Map(nil))
}

func TestMapPassesStatusThrough(t *testing.T) {
	in := status.Error(codes.ResourceExhausted, "slow down")
	assert.Equal(t, in, svcErr.Map(in))
}
