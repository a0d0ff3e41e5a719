package errx

import (
	"errors"
	"fmt"
)

// Error is the error value every package in the module returns across its
// boundary. Err carries the cause and is never rendered to clients.
type Error struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Type       Type           `json:"type"`
	HTTPStatus int            `json:"status"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail attaches a client-visible detail and returns e for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// New builds an unregistered error whose code is the type name.
func New(message string, t Type) *Error {
	return &Error{
		Code:       string(t),
		Message:    message,
		Type:       t,
		HTTPStatus: t.Status(),
	}
}

// Wrap wraps err. When err already is an *Error its code, status and
// details survive and only the message changes.
func Wrap(err error, message string, t Type) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Code:       existing.Code,
			Message:    message,
			Type:       existing.Type,
			HTTPStatus: existing.HTTPStatus,
			Details:    existing.Details,
			Err:        err,
		}
	}
	return &Error{
		Code:       string(t),
		Message:    message,
		Type:       t,
		HTTPStatus: t.Status(),
		Err:        err,
	}
}

func Wrapf(err error, t Type, format string, args ...any) *Error {
	return Wrap(err, fmt.Sprintf(format, args...), t)
}

// IsCode reports whether any *Error in err's chain carries code.
func IsCode(err error, code *ErrorCode) bool {
	if err == nil || code == nil {
		return false
	}
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code.Code {
			return true
		}
		err = e.Err
	}
	return false
}

// IsType reports whether the outermost *Error in err's chain has type t.
func IsType(err error, t Type) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

func Internal(message string) *Error   { return New(message, TypeInternal) }
func Validation(message string) *Error { return New(message, TypeValidation) }
func NotFound(message string) *Error   { return New(message, TypeNotFound) }
func Conflict(message string) *Error   { return New(message, TypeConflict) }
