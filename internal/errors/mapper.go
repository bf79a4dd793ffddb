// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/callfirst/internal/logger"
)

// Map converts service/repo/infra errors into gRPC status errors.
// Typed service errors keep their message; unknown errors become a generic
// Internal status so backend details never reach clients. The cause of an
// Internal error is logged and sent to Sentry (a no-op until sentry.Init).
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	msg := Message(err, "")

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, msg)

	case errors.Is(err, ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, msg)

	case errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, msg)

	case errors.Is(err, ErrPrecondition):
		return status.Error(codes.FailedPrecondition, msg)

	case errors.Is(err, ErrConflict):
		return status.Error(codes.AlreadyExists, msg)

	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, msg)

	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		logger.L().Error("unexpected error", "err", err)
		sentry.CaptureException(err)
		return status.Error(codes.Internal, "something went wrong, please retry")
	}
}
