package executor

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// KindValidation means the caller supplied structurally invalid arguments. No SQL was issued.
	KindValidation Kind = iota + 1

	// KindConnection means a connection to the backend could not be acquired. No SQL was issued.
	KindConnection

	// KindExecution means the backend rejected the statement. Writes were rolled back.
	KindExecution

	// KindNotFound means the requested object does not exist.
	KindNotFound

	// KindEncoding means the query succeeded but its result could not be rendered as text.
	KindEncoding
)

// String labels the Kind for logging purposes.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConnection:
		return "connection"
	case KindExecution:
		return "execution"
	case KindNotFound:
		return "not found"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the HTTP status code used to report errors of this Kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConnection:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	case KindEncoding:
		return http.StatusNotAcceptable
	default:
		return http.StatusInternalServerError
	}
}

// KindFromHTTPStatus is the inverse of Kind.HTTPStatus.
func KindFromHTTPStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusServiceUnavailable:
		return KindConnection
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusNotAcceptable:
		return KindEncoding
	default:
		return KindExecution
	}
}

// Error is the single failure report returned by every operation.
type Error struct {
	Kind  Kind
	Op    Operation
	Table string
	Err   error
}

// Error renders the failure in the form "Failed to <action> <target>: <cause>".
func (e *Error) Error() string {
	target := e.Table
	if target == "" {
		return fmt.Sprintf("Failed to %s: %v", e.Op.action(), e.Err)
	}

	return fmt.Sprintf("Failed to %s %s: %v", e.Op.action(), target, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var opErr *Error
	if !errors.As(err, &opErr) {
		return false
	}

	return opErr.Kind == kind
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var opErr *Error
	if !errors.As(err, &opErr) {
		return 0
	}

	return opErr.Kind
}

func newError(kind Kind, op Operation, table string, err error) *Error {
	return &Error{Kind: kind, Op: op, Table: table, Err: err}
}

// ErrNotFound is the cause of KindNotFound errors.
var ErrNotFound = errors.New("Not found")

// kindError tags an internal failure with the Kind it should be reported as.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string {
	return e.err.Error()
}

func (e *kindError) Unwrap() error {
	return e.err
}

// classify returns the Kind for an internal failure. Untagged failures come from the backend.
func classify(err error) Kind {
	var tagged *kindError
	if errors.As(err, &tagged) {
		return tagged.kind
	}

	return KindExecution
}
