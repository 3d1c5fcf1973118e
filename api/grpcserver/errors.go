package grpcserver

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"junction/domain/swap"
	"junction/service"
)

// ErrorDomain identifies this service in ErrorInfo details.
const ErrorDomain = "junction.swap"

var kindCodes = map[error]codes.Code{
	swap.ErrUnauthenticated:   codes.Unauthenticated,
	swap.ErrUnauthorized:      codes.PermissionDenied,
	swap.ErrInvalidInput:      codes.InvalidArgument,
	swap.ErrInsufficientFunds: codes.FailedPrecondition,
	swap.ErrNotFound:          codes.NotFound,
	swap.ErrIncompatible:      codes.FailedPrecondition,
	swap.ErrExpired:           codes.FailedPrecondition,
	swap.ErrOverflow:          codes.OutOfRange,
	swap.ErrAlreadyProcessed:  codes.FailedPrecondition,
}

// toStatus maps an error to a gRPC status. Engine errors carry their kind
// in an ErrorInfo reason so clients can tell them apart without parsing
// the message.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if kind := swap.KindOf(err); kind != nil {
		st := status.New(kindCodes[kind], err.Error())
		if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
			Reason: swap.KindName(err),
			Domain: ErrorDomain,
		}); derr == nil {
			st = detailed
		}
		return st.Err()
	}

	switch {
	case errors.Is(err, service.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// Reason extracts the engine error kind from a status returned by the
// service, or "" if it carries none.
func Reason(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == ErrorDomain {
			return info.Reason
		}
	}
	return ""
}
