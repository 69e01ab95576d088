package meal

import (
	"errors"
	"fmt"
)

// Kind identifies a class of request or session failure. The transport
// orchestrator is the only component that assigns kinds to raw HTTP
// failures; everything downstream may add context but never re-classify.
type Kind string

const (
	// KindNetwork covers calls that got no response at all, timeouts included.
	KindNetwork Kind = "NETWORK_ERROR"

	// KindUnauthenticated is a 401; it invalidates the session exactly once.
	KindUnauthenticated Kind = "UNAUTHENTICATED"

	KindForbidden        Kind = "FORBIDDEN"
	KindNotFound         Kind = "NOT_FOUND"
	KindConflict         Kind = "CONFLICT"
	KindValidationFailed Kind = "VALIDATION_FAILED"
	KindServerError      Kind = "SERVER_ERROR"

	// KindInvalidServerResponse marks a 2xx whose payload is missing
	// required fields (e.g. a login response without a token).
	KindInvalidServerResponse Kind = "INVALID_SERVER_RESPONSE"

	KindPasswordMismatch   Kind = "PASSWORD_MISMATCH"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindAccountDisabled    Kind = "ACCOUNT_DISABLED"
	KindUnknown            Kind = "UNKNOWN"
)

// Error is the classified failure surfaced to callers in place of raw
// transport errors.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	// FieldErrors maps form field names to human-readable messages for
	// KindValidationFailed, so forms can highlight specific inputs.
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`

	// HTTPStatus is the status that produced this error, 0 for local
	// failures and network errors.
	HTTPStatus int `json:"-"`

	// UpgradeRequired is set on a 403 whose message indicates a missing
	// subscription, hinting the UI towards the subscription page.
	UpgradeRequired bool `json:"-"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// WithFieldErrors attaches a field→message map.
func (e *Error) WithFieldErrors(fields map[string]string) *Error {
	e.FieldErrors = fields
	return e
}

// NewError creates a classified error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// AsError extracts a classified *Error from err, unwrapping as needed.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether err is eligible for the bounded retry policy:
// network failures and 5xx server errors only. A 401 is never retried; it is
// handled by the session invalidation side effect instead.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindNetwork || k == KindServerError
}
