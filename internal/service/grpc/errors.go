package grpcsvc

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// toStatus переводит ошибку workflow в gRPC статус. Уже готовый статус не меняется.
func (s *ComposeService) toStatus(err error, operation string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code, msg := classify(err)
	entry := s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"code":      code.String(),
	})
	switch code {
	case codes.Internal, codes.Unavailable:
		entry.Warn("compose command failed")
	default:
		entry.Debug("compose command rejected")
	}
	return status.Error(code, msg)
}

func classify(err error) (codes.Code, string) {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled, "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded, "request deadline exceeded"
	case errors.Is(err, domain.ErrOrderNotEditable):
		return codes.FailedPrecondition, domain.ErrOrderNotEditable.Message
	case domain.IsValidation(err):
		return codes.InvalidArgument, domain.UserMessage(err)
	case errors.Is(err, domain.ErrUnauthenticated):
		return codes.Unauthenticated, domain.ErrUnauthenticated.Error()
	case errors.Is(err, domain.ErrSessionForbidden):
		return codes.PermissionDenied, domain.ErrSessionForbidden.Error()
	case errors.Is(err, domain.ErrSessionNotFound):
		return codes.NotFound, domain.ErrSessionNotFound.Error()
	case errors.Is(err, domain.ErrSessionVersionConflict):
		return codes.Aborted, domain.ErrSessionVersionConflict.Error()
	case errors.Is(err, domain.ErrOperationInProgress):
		return codes.Aborted, domain.ErrOperationInProgress.Error()
	case errors.Is(err, domain.ErrStaleResponse):
		return codes.Aborted, domain.ErrStaleResponse.Error()
	}

	if rErr, ok := domain.AsRequestError(err); ok {
		switch {
		case rErr.Unauthorized():
			return codes.Unauthenticated, rErr.UserMessage()
		case rErr.NotFound():
			return codes.NotFound, rErr.UserMessage()
		default:
			return codes.Unavailable, rErr.UserMessage()
		}
	}
	return codes.Internal, domain.FallbackRequestMessage
}
