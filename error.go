package fncli

import "errors"

// NewError creates a new error with the given error code and error.
func NewError(code ErrorCode, err error) error {
	return &Error{code: code, err: err}
}

// ErrorCode represents an error code for a specific error type.
type ErrorCode int

const (
	// ErrShowHelp asks [Run] to print the command usage along with the error.
	ErrShowHelp ErrorCode = iota + 1
	// ErrInvalidArgs marks a command line the user got wrong: an unknown flag, a value that does
	// not convert or is not one of the choices, a missing required argument or surplus
	// arguments.
	ErrInvalidArgs
)

func (c ErrorCode) String() string {
	switch c {
	case ErrShowHelp:
		return "show help"
	case ErrInvalidArgs:
		return "invalid arguments"
	default:
		return "unknown error"
	}
}

// Error represents an error with an error code and an underlying error.
type Error struct {
	code ErrorCode
	err  error
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.err == nil {
		return e.code.String() + ": <nil>"
	}
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// IsInvalidArgs reports whether err, or any error it wraps, is an [Error] with code
// [ErrInvalidArgs].
func IsInvalidArgs(err error) bool {
	var cliErr *Error
	return errors.As(err, &cliErr) && cliErr.code == ErrInvalidArgs
}
