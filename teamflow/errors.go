package teamflow

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes failures of the sync layer.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Server-reported errors (WebSocket close codes / error frames)
	ErrorUnauthorized
	ErrorForbidden
	ErrorTooManyConnections
	ErrorInternalServer
	ErrorBadFrame

	// Client-side errors
	ErrorTransport
	ErrorNotConnected
	ErrorReconnectExhausted
	ErrorSendFailed
	ErrorSendTimeout
	ErrorSerialization
	ErrorInvalidConfig
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorForbidden:
		return "forbidden"
	case ErrorTooManyConnections:
		return "too_many_connections"
	case ErrorInternalServer:
		return "internal_error"
	case ErrorBadFrame:
		return "bad_frame"
	case ErrorTransport:
		return "transport_error"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorReconnectExhausted:
		return "reconnect_exhausted"
	case ErrorSendFailed:
		return "send_failed"
	case ErrorSendTimeout:
		return "send_timeout"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorInvalidConfig:
		return "invalid_config"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// CodeFromCloseStatus maps the server's application close codes to
// ErrorCodes. Codes outside the 4xxx application range map to
// ErrorTransport.
func CodeFromCloseStatus(status int) ErrorCode {
	switch status {
	case 4401:
		return ErrorUnauthorized
	case 4403:
		return ErrorForbidden
	case 4429:
		return ErrorTooManyConnections
	case 4500:
		return ErrorInternalServer
	default:
		return ErrorTransport
	}
}

// SyncError is a structured error with code and context.
type SyncError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *SyncError) Unwrap() error {
	return e.Wrapped
}

// Is matches SyncErrors by code, so errors.Is(err, NewError(code, ""))
// tests the category regardless of message.
func (e *SyncError) Is(target error) bool {
	t, ok := target.(*SyncError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a SyncError with the given code and message.
func NewError(code ErrorCode, message string) *SyncError {
	return &SyncError{Code: code, Message: message}
}

// WrapError wraps an existing error with a SyncError.
func WrapError(code ErrorCode, message string, err error) *SyncError {
	return &SyncError{Code: code, Message: message, Wrapped: err}
}

// CodeOf extracts the ErrorCode from err, or ErrorUnknown when err is
// not a SyncError.
func CodeOf(err error) ErrorCode {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrorUnknown
}

// IsConnectionError reports whether err is a connection-level failure
// (as opposed to a per-message one).
func IsConnectionError(err error) bool {
	switch CodeOf(err) {
	case ErrorTransport, ErrorNotConnected, ErrorReconnectExhausted:
		return true
	default:
		return false
	}
}
