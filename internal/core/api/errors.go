package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/querybuilder/internal/types"
)

// Request validation errors are mapped inline in handlers.
// Domain sentinels are mapped here:
// unknown sessions and filters map to NOT_FOUND,
// name conflicts to ALREADY_EXISTS, the session limit to RESOURCE_EXHAUSTED,
// malformed trees to INVALID_ARGUMENT, context timeouts to DEADLINE_EXCEEDED.
// Anything else (database failures) maps to UNAVAILABLE.
func statusFromError(err error) error {
	code := codes.Unavailable
	switch {
	case errors.Is(err, types.ErrSessionNotFound), errors.Is(err, types.ErrFilterNotFound):
		code = codes.NotFound
	case errors.Is(err, types.ErrFilterExists):
		code = codes.AlreadyExists
	case errors.Is(err, types.ErrTooManySessions):
		code = codes.ResourceExhausted
	case errors.Is(err, types.ErrEmptyQuery),
		errors.Is(err, types.ErrInvalidCombinator),
		errors.Is(err, types.ErrFilterNameRequired),
		errors.Is(err, types.ErrUnknownProperty):
		code = codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	}
	return status.Error(code, err.Error())
}
