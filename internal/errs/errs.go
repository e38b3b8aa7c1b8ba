// Package errs defines the typed error kinds surfaced across the memory
// subsystems, letting the dispatcher serialize failures as {kind, message}
// without string-matching on error text.
package errs

import (
	"errors"
	"fmt"
)

// Kind discriminates the category of failure.
type Kind string

const (
	NotFound           Kind = "NotFound"
	AlreadyExists      Kind = "AlreadyExists"
	InvalidArgument    Kind = "InvalidArgument"
	Conflict           Kind = "Conflict"
	ProviderUnavailable Kind = "ProviderUnavailable"
	ProviderInvalid    Kind = "ProviderInvalid"
	StorageUnavailable Kind = "StorageUnavailable"
	Internal           Kind = "Internal"
	Cancelled          Kind = "Cancelled"
	DegradedMode       Kind = "DegradedMode"
)

// Error is the standard error shape for every subsystem in this module.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind, preserving cause for Unwrap.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the Kind of err, defaulting to Internal for errors this
// package didn't produce.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf extracts the bare Message of err, without the Kind prefix
// Error() adds, falling back to err.Error() for errors this package
// didn't produce.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
