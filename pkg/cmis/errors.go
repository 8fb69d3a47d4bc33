package cmis

import (
	"errors"
	"fmt"
)

// Sentinel errors for the CMIS error taxonomy. Transports map server-side
// failures onto these; the core raises them directly for client-side
// capability checks and argument validation.
var (
	// ErrObjectNotFound indicates a repository or object lookup yielded
	// nothing.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidArgument indicates a request that is malformed before it
	// ever reaches the server, such as creating a filed object without a
	// parent folder.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotSupported indicates an operation unavailable given the
	// repository's advertised capability set.
	ErrNotSupported = errors.New("operation not supported by repository")

	// ErrPermissionDenied indicates the principal lacks permission for the
	// requested operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRuntime covers any other server-reported failure.
	ErrRuntime = errors.New("repository runtime error")

	// ErrInvariant indicates a response that violates the browser binding
	// contract itself, such as a missing allowableActions key after it was
	// explicitly requested. It is not a recoverable condition: it means the
	// transport or server is broken.
	ErrInvariant = errors.New("browser binding contract violation")
)

// Error wraps a sentinel with the operation that failed and an optional
// human-readable message.
type Error struct {
	// Op is the operation that failed, e.g. "Checkout" or "Query".
	Op string

	// Err is the underlying error, usually one of the sentinels above.
	Err error

	// Msg is an optional detail message.
	Msg string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, err error, msg string) *Error {
	return &Error{Op: op, Err: err, Msg: msg}
}
