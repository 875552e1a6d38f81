// Package errors provides error types and utilities for reconx.
// It extends the standard errors package with additional context and wrapping capabilities.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios
var (
	// ErrTimeout indicates an operation exceeded its time limit
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidResponse indicates a response could not be parsed or was malformed
	ErrInvalidResponse = errors.New("invalid response")

	// ErrContract indicates a source descriptor violated the source contract
	ErrContract = errors.New("source contract violation")

	// ErrLockHeld indicates the cache lock is held by another process
	ErrLockHeld = errors.New("cache lock held")

	// ErrCorruptCache indicates a cache payload failed its integrity check
	ErrCorruptCache = errors.New("cache payload corrupt")

	// ErrUnauthorized indicates authentication or authorization failed
	ErrUnauthorized = errors.New("unauthorized")
)

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Contract builds a source contract violation attributed to the named
// source. The result matches ErrContract via Is, so loaders and runners
// share one detection path for descriptor and parse-shape failures.
func Contract(source, msg string) error {
	return &wrappedError{
		msg:   fmt.Sprintf("source %s: %s", source, msg),
		cause: ErrContract,
	}
}

// Contractf is Contract with a formatted message.
func Contractf(source, format string, args ...interface{}) error {
	return Contract(source, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: msg, cause: err}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: fmt.Sprintf(format, args...), cause: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf formats according to a format specifier and returns the string as a value that satisfies error.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsTimeout reports whether the error is a timeout error
func IsTimeout(err error) bool {
	return Is(err, ErrTimeout)
}

// IsContract reports whether the error is a source contract violation
func IsContract(err error) bool {
	return Is(err, ErrContract)
}

// IsLockHeld reports whether the error is a cache lock contention error
func IsLockHeld(err error) bool {
	return Is(err, ErrLockHeld)
}
