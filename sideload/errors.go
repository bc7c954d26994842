package sideload

import "errors"

var (
	// ErrMalformedOrder reports a hook order that is not sequence-like
	// where a sequence is required. It is a configuration error and is never
	// replaced by a default order.
	ErrMalformedOrder = errors.New("hook order expects a sequence")

	ErrInvalidHook       = errors.New("invalid hook")
	ErrDuplicateHook     = errors.New("duplicate hook")
	ErrInvalidDefinition = errors.New("invalid interceptor definition")
	ErrInvalidPrefix     = errors.New("invalid hook prefix")

	// ErrUnknownMethod is returned when the real method has to run but the
	// interceptor's method table has no entry for it.
	ErrUnknownMethod = errors.New("unknown method")

	ErrArgument = errors.New("invalid argument")
)
