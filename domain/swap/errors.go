package swap

import "github.com/cockroachdb/errors"

// Error kinds returned by the engine. Callers match them with errors.Is;
// the engine wraps them with context.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrIncompatible      = errors.New("incompatible swap requests")
	ErrExpired           = errors.New("swap request expired")
	ErrOverflow          = errors.New("overflow")
	ErrAlreadyProcessed  = errors.New("already processed")
)

var kinds = []error{
	ErrUnauthenticated,
	ErrUnauthorized,
	ErrInvalidInput,
	ErrInsufficientFunds,
	ErrNotFound,
	ErrIncompatible,
	ErrExpired,
	ErrOverflow,
	ErrAlreadyProcessed,
}

// KindOf returns the sentinel kind carried by err, or nil when err is not
// an engine error.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName is the stable upper-case name of an error kind, used on the wire.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrUnauthenticated:
		return "UNAUTHENTICATED"
	case ErrUnauthorized:
		return "UNAUTHORIZED"
	case ErrInvalidInput:
		return "INVALID_INPUT"
	case ErrInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrIncompatible:
		return "INCOMPATIBLE"
	case ErrExpired:
		return "EXPIRED"
	case ErrOverflow:
		return "OVERFLOW"
	case ErrAlreadyProcessed:
		return "ALREADY_PROCESSED"
	default:
		return "INTERNAL"
	}
}
