// Package domainerrors defines the coded error type every service in the
// ledger returns to its callers. Codes follow the operation taxonomy
// (invalid argument, permission denied, already exists, not found,
// precondition failed) plus the ambient codes the HTTP edge needs.
//
// Stores and infrastructure return pkg/platform/sentinel errors; services
// translate those into coded errors here so handlers can map them to HTTP
// statuses without inspecting infrastructure details.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and the transport edge.
type Code string

const (
	// CodeInvalidArgument: the caller supplied a malformed or null value
	// (zero address, empty flight, zero amount).
	CodeInvalidArgument Code = "invalid_argument"
	// CodeUnauthenticated: the caller's identity could not be established.
	CodeUnauthenticated Code = "unauthenticated"
	// CodePermissionDenied: the caller is known but not eligible
	// (proposer not registered, airline not verified).
	CodePermissionDenied Code = "permission_denied"
	// CodeNotFound: the referenced entity does not exist
	// (unknown request key, unregistered oracle).
	CodeNotFound Code = "not_found"
	// CodeAlreadyExists: the operation would duplicate state
	// (re-registration, duplicate policy, duplicate vote).
	CodeAlreadyExists Code = "already_exists"
	// CodePreconditionFailed: state or payment requirements not met
	// (insufficient fee, insufficient balance, index mismatch).
	CodePreconditionFailed Code = "precondition_failed"
	// CodeRateLimited: the caller exceeded a request budget.
	CodeRateLimited Code = "rate_limited"
	// CodeInternal: an infrastructure fault the caller cannot fix.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Message is safe to show callers unless
// the code is CodeInternal, in which case the edge omits it.
type Error struct {
	Code    Code
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.err
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err
// yields nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, err: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.err
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in handlers.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when
// err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or an empty string.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to the HTTP status the transport edge writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
