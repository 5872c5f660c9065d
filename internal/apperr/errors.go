// Package apperr defines the error taxonomy shared by the ingestion pipeline,
// the progress engine and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for classification. Wrap them with New or the helpers
// below and test with errors.Is.
var (
	// ErrNotFound indicates a referenced course, video or asset does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input rejected before any work is done.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a uniqueness or state conflict.
	ErrConflict = errors.New("conflict")

	// ErrIO indicates a storage read or write failure.
	ErrIO = errors.New("io failure")

	// ErrEncode indicates the external encoder failed or was aborted.
	ErrEncode = errors.New("encode failure")

	// ErrProbe indicates metadata probing failed.
	ErrProbe = errors.New("probe failure")

	// ErrUnavailable indicates the service is shutting down or otherwise not
	// accepting work.
	ErrUnavailable = errors.New("service unavailable")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error carries the failing operation and a classification sentinel along
// with the underlying cause.
type Error struct {
	Kind  error  // one of the sentinels above
	Op    string // operation that failed, e.g. "ingest.store_upload"
	Msg   string // optional human readable detail
	Cause error  // underlying error, may be nil
}

// Error implements error.
func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = e.Msg
	}
	switch {
	case e.Op != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Cause)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	default:
		return msg
	}
}

// Unwrap exposes both the classification and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// New creates a classified error.
func New(kind error, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// NotFound returns an ErrNotFound with a formatted message.
func NotFound(op, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validation returns an ErrValidation with a formatted message.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an ErrConflict with a formatted message.
func Conflict(op, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IO wraps a storage failure.
func IO(op string, cause error) error {
	return New(ErrIO, op, cause)
}

// Encode wraps an encoder failure.
func Encode(op string, cause error) error {
	return New(ErrEncode, op, cause)
}

// Probe wraps a metadata probe failure.
func Probe(op string, cause error) error {
	return New(ErrProbe, op, cause)
}

// HTTPStatus maps an error to the status code the API returns for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to API clients. Internal
// failures are collapsed to a generic string.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		return e.Kind.Error()
	}
	return err.Error()
}
