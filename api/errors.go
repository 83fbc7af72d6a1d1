// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-fio library.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrClosed          = fmt.Errorf("capability is closed")
	ErrPoolClosed      = fmt.Errorf("buffer pool is closed")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidState    = fmt.Errorf("invalid session state")
	ErrNotSupported    = fmt.Errorf("operation not supported")
)

// ErrorCode classifies platform I/O failures by the step that produced them.
// Every code maps to exactly one stage of a read session; there is no retry
// at any of them.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeOpen
	ErrCodeProbe
	ErrCodeRegister
	ErrCodeSubmit
	ErrCodeComplete
	ErrCodeSink
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeOpen:
		return "open"
	case ErrCodeProbe:
		return "probe"
	case ErrCodeRegister:
		return "register"
	case ErrCodeSubmit:
		return "submit"
	case ErrCodeComplete:
		return "complete"
	case ErrCodeSink:
		return "sink"
	}
	return "unknown"
}

// Error is a structured error carrying the failed stage and the underlying
// native status. Status is the wrapped OS-level error (a syscall.Errno on
// Unix) and is preserved for errors.Is/As chains.
type Error struct {
	Code    ErrorCode
	Status  error
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Status)
}

// Unwrap exposes the native status for errors.Is/As.
func (e *Error) Unwrap() error { return e.Status }

// NewError creates a structured error for the given stage.
func NewError(code ErrorCode, message string, status error) *Error {
	return &Error{Code: code, Status: status, Message: message}
}
