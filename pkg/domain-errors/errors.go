package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for callers and the HTTP layer.
type Code string

const (
	// CodeValidation marks caller errors: bad input shape or value. Never
	// retried automatically.
	CodeValidation Code = "validation"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a well-formed request that violates a state
	// invariant, e.g. verifying an expired document.
	CodeConflict Code = "conflict"
	// CodeStorage marks blob or record store I/O failures. May be transient.
	CodeStorage Code = "storage"
	// CodeDelivery marks notifier failures. Always transient, isolated per
	// recipient.
	CodeDelivery Code = "delivery"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with optional structured details so callers
// can correct a rejected request without guessing.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetails returns a copy of e carrying structured detail values.
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// GetCode extracts the code from err, or CodeInternal when err carries none.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err (or any wrapped cause) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// HTTPStatus maps a code to the HTTP status the transport layer responds with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeStorage, CodeInternal:
		return http.StatusInternalServerError
	case CodeDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
