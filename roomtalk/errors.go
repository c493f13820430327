package roomtalk

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes SDK errors per the failure taxonomy: request failures
// recover locally, transport failures degrade the session, decode failures are
// dropped, server-signaled errors surface to the user.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota
	ErrorInvalidConfig

	// Request failures (auth, room fetch/create, history, user lookup).
	ErrorAuth
	ErrorRequest

	// Transport failures.
	ErrorConnection
	ErrorSend
	ErrorNotConnected

	ErrorInvalidMessage
	ErrorDecode

	// Server-signaled protocol error (an "error"-typed event).
	ErrorServer
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorAuth:
		return "auth_failed"
	case ErrorRequest:
		return "request_failed"
	case ErrorConnection:
		return "connection_error"
	case ErrorSend:
		return "send_error"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorInvalidMessage:
		return "invalid_message"
	case ErrorDecode:
		return "decode_error"
	case ErrorServer:
		return "server_error"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// Error is a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is comparison by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with an Error.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Wrapped: err}
}

// IsConnectionError reports whether err is a transport-level failure.
func IsConnectionError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == ErrorConnection || e.Code == ErrorSend || e.Code == ErrorNotConnected
}

// IsServerError reports whether err carries a server-signaled protocol error.
func IsServerError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == ErrorServer
}
