package domain

import "errors"

var (
	// ErrInvalidDomain indicates a target or candidate failed domain validation.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrEmptyTarget indicates no target was supplied.
	ErrEmptyTarget = errors.New("empty target")
)
