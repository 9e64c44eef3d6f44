package timer

import "errors"

var (
	// ErrInvalidArgument reports a negative duration component or a missing loop.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTypeMismatch reports a callback option that was supplied without a function.
	ErrTypeMismatch = errors.New("type mismatch")
)
