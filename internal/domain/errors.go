package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID   = "invalid"    // Malformed event or input value
	EFORBIDDEN = "forbidden"  // Request rejected (e.g., CSRF mismatch)
	ENOTFOUND  = "not_found"  // Session or report not found
	ECONFLICT  = "conflict"   // Event not allowed on the current screen
	ERATELIMIT = "rate_limit" // Rate limit exceeded
	EINTERNAL  = "internal"   // Internal server error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "session.submit")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// internalMessage replaces the message of every EINTERNAL error shown to a
// client.
const internalMessage = "An internal error occurred. Please try again later."

func newError(code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return newError(code, op, fmt.Sprintf(format, args...))
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
// Validation errors report EINVALID.
func ErrorCode(err error) string {
	var (
		ve *ValidationError
		e  *Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return EINVALID
	case errors.As(err, &e):
		return e.Code
	}
	return EINTERNAL
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

// ErrorMessage returns the message safe to show a client. Internal errors
// and foreign errors never expose their text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) || e.Code == EINTERNAL {
		return internalMessage
	}
	return e.Message
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// NotFound reports a missing session resource, e.g. the report of a
// session still on the form.
func NotFound(op, resource, id string) *Error {
	return newError(ENOTFOUND, op, fmt.Sprintf("%s %q not found", resource, id))
}

// Invalid reports a malformed event or value.
func Invalid(op, message string) *Error {
	return newError(EINVALID, op, message)
}

// Conflict reports an event the current screen does not accept.
func Conflict(op, message string) *Error {
	return newError(ECONFLICT, op, message)
}

// Forbidden reports a rejected request.
func Forbidden(op, message string) *Error {
	return newError(EFORBIDDEN, op, message)
}

// Internal wraps an unexpected failure. Its message is logged, never shown.
func Internal(err error, op, message string) *Error {
	e := newError(EINTERNAL, op, message)
	e.Err = err
	return e
}

// RateLimit reports a client over its request budget.
func RateLimit(op string) *Error {
	return newError(ERATELIMIT, op, "Too many requests. Please try again later.")
}

// ValidationError is returned when a submission is rejected because one or
// more fields fail their rules.
type ValidationError struct {
	Op     string
	Fields ValidationErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed (%d fields)", e.Op, len(e.Fields))
}

// FieldMap returns the failing fields keyed by their wire name.
func (e *ValidationError) FieldMap() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for f, msg := range e.Fields {
		if msg != "" {
			out[string(f)] = msg
		}
	}
	return out
}
