package errors

import (
	"errors"
	"fmt"
)

// Error is a typed failure of one of the bot's collaborators.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so errors.Is works
// against the predefined values below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an existing error.
func Wrap(err error, base *Error, message string) *Error {
	if message == "" {
		message = base.Message
	}
	return &Error{Code: base.Code, Message: message, Err: err}
}

// Predefined errors for the pipeline stages.
var (
	ErrAuth          = New("AUTH_FAILED", "portal authentication failed")
	ErrFetch         = New("FETCH_FAILED", "timetable fetch failed")
	ErrParse         = New("PARSE_FAILED", "timetable document could not be read")
	ErrRender        = New("RENDER_FAILED", "timetable rendering failed")
	ErrDelivery      = New("DELIVERY_FAILED", "message delivery failed")
	ErrNotRegistered = New("NOT_REGISTERED", "user is not registered")
	ErrPastDue       = New("PAST_DUE", "fire time has already passed")
)

// CodeOf returns the code of the first *Error in err's chain, or "" when none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
