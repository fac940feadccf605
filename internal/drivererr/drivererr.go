// Package drivererr provides a structured error type for driver operation
// failures. Error preserves message and causal context while still
// implementing the standard error interface, and carries the Kind the
// dispatcher needs to pick a JSON-RPC error code without string sniffing.
package drivererr

import (
	"errors"
	"fmt"
)

// Kind tags a driver failure with the small enum spec'd for driver
// operations: NotSupported, InvalidArgs, Denied, Gone, Timeout, Protocol,
// IO, Other.
type Kind int

const (
	// Other is the zero value: an unclassified backend failure.
	Other Kind = iota
	// NotSupported indicates the backend cannot express the requested
	// operation at all (distinct from a transient failure).
	NotSupported
	// InvalidArgs indicates the caller supplied arguments the driver
	// rejects (not the dispatcher-level shape validation in §4.5).
	InvalidArgs
	// Denied indicates the backend refused the operation (e.g. the
	// adapter rejected a request for policy reasons).
	Denied
	// Gone indicates the driver or its subprocess is no longer available.
	Gone
	// Timeout indicates a driver-wide deadline elapsed waiting for a
	// response.
	Timeout
	// Protocol indicates malformed or unexpected wire data from the
	// backend.
	Protocol
	// IO indicates a pipe/subprocess I/O failure.
	IO
)

func (k Kind) String() string {
	switch k {
	case NotSupported:
		return "NotSupported"
	case InvalidArgs:
		return "InvalidArgs"
	case Denied:
		return "Denied"
	case Gone:
		return "Gone"
	case Timeout:
		return "Timeout"
	case Protocol:
		return "Protocol"
	case IO:
		return "IO"
	default:
		return "Other"
	}
}

// Error represents a structured driver failure. Errors may wrap an
// underlying Error via Cause to retain diagnostics across proxy/subprocess
// hops while still supporting errors.Is/As through Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   *Error
}

// New constructs an Error of the given kind with the provided message.
func New(kind Kind, message string) *Error {
	if message == "" {
		message = kind.String()
	}
	return &Error{Kind: kind, Message: message}
}

// Errorf formats according to a format specifier and returns the result as
// an Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap converts an arbitrary error into an Error of the given kind,
// preserving an existing Error chain via Cause when err already carries
// one.
func Wrap(kind Kind, message string, err error) *Error {
	if err == nil {
		return New(kind, message)
	}
	if message == "" {
		message = err.Error()
	}
	return &Error{Kind: kind, Message: message, Cause: FromError(err)}
}

// FromError converts an arbitrary error into an Error chain, preserving an
// existing chain when present.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Kind: Other, Message: err.Error(), Cause: FromError(errors.Unwrap(err))}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying cause to support errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target shares this error's Kind, letting callers
// write errors.Is(err, drivererr.New(drivererr.NotSupported, "")).
func (e *Error) Is(target error) bool {
	var de *Error
	if !errors.As(target, &de) {
		return false
	}
	return de.Kind == e.Kind
}
