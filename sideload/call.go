package sideload

import (
	"fmt"
	"slices"
	"time"

	"github.com/on-the-ground/wrapped_ive_go/effects"
	"github.com/on-the-ground/wrapped_ive_go/shared/helper"
)

// Args are the positional arguments of an intercepted call.
type Args []any

// Arg returns args[i] as T.
func Arg[T any](args Args, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, fmt.Errorf("%w: index %d out of range [0, %d)", ErrArgument, i, len(args))
	}
	v, err := helper.AssertType[T](args[i])
	if err != nil {
		return zero, fmt.Errorf("%w: index %d: %w", ErrArgument, i, err)
	}
	return v, nil
}

// Call is the state of one intercepted invocation. It lives only for the
// duration of that invocation.
type Call struct {
	Interceptor string
	Method      string
	Args        Args
	Started     time.Time

	// Skipped is set once a pre-hook short-circuited the real method.
	// Only post-hooks can observe it as true.
	Skipped bool
}

// Span is the time elapsed since the call started.
func (c Call) Span() effects.TimeSpan {
	return effects.Since(c.Started)
}

// qualified renders "Interceptor::name", the identity used in log entries.
func (c Call) qualified(name string) string {
	return c.Interceptor + "::" + name
}

// forHook hands a hook its own copy of the arguments so the real method
// always receives the original ones.
func (c Call) forHook() Call {
	c.Args = slices.Clone(c.Args)
	return c
}
