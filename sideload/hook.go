package sideload

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Phase is the side of the real call a hook runs on.
type Phase int

const (
	PhasePre Phase = iota
	PhasePost
)

func (p Phase) String() string {
	switch p {
	case PhasePre:
		return "pre"
	case PhasePost:
		return "post"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// PreHook runs before the real method. prev is what the previous pre-hook
// returned, Continue(nil) for the first one.
type PreHook func(ctx context.Context, call Call, prev PreResult) (PreResult, error)

// PostHook runs after the real method (or its short-circuit producer) and
// returns the possibly transformed result.
type PostHook func(ctx context.Context, call Call, result any) (any, error)

// Hook is a named pre or post hook.
//
// A hook is discovered for a method when its name starts with
// <prefix><Method>, where <Method> is the method name with its first letter
// upper-cased. "preIndex" and "preIndexValidate" both run before "index".
type Hook struct {
	Name string
	pre  PreHook
	post PostHook
}

func Pre(name string, fn PreHook) Hook {
	return Hook{Name: name, pre: fn}
}

func Post(name string, fn PostHook) Hook {
	return Hook{Name: name, post: fn}
}

func (h Hook) Phase() Phase {
	if h.pre != nil {
		return PhasePre
	}
	return PhasePost
}

func (h Hook) validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidHook)
	}
	if (h.pre == nil) == (h.post == nil) {
		return fmt.Errorf("%w: %s must have exactly one of a pre or post function", ErrInvalidHook, h.Name)
	}
	return nil
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// BaseHookName is the name every hook of prefix for method starts with.
func BaseHookName(prefix, method string) string {
	return prefix + Capitalize(method)
}
