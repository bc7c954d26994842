package sideload

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/on-the-ground/wrapped_ive_go/effects/binding"
	"github.com/on-the-ground/wrapped_ive_go/effects/configkeys"
)

// Method is the real implementation of one intercepted method.
type Method[T any] func(ctx context.Context, target T, args Args) (any, error)

// Definition describes an interceptor before it is built by New.
type Definition[T any] struct {
	// Name identifies the interceptor in log entries and in the
	// sideload.order.<Name> configuration key. Defaults to T's type name.
	Name    string
	Target  T
	Methods map[string]Method[T]

	// Hooks in registration order.
	Hooks []Hook

	// Order overrides sideload.order.<Name> when non-zero.
	Order OrderSpec

	// Prefixes is used for phases without a configured prefix.
	Prefixes Prefixes
}

// Interceptor wraps a target and runs its hooks around every Invoke.
// Apart from Refresh it is immutable, and safe for concurrent use.
type Interceptor[T any] struct {
	name     string
	target   T
	methods  map[string]Method[T]
	hooks    map[string]Hook
	resolver *Resolver
	policy   *Policy
}

// New validates def, loads its hook order and resolves its policy from ctx.
func New[T any](ctx context.Context, def Definition[T]) (*Interceptor[T], error) {
	name := def.Name
	if name == "" {
		name = typeName[T]()
	}

	methods := make(map[string]Method[T], len(def.Methods))
	for m, fn := range def.Methods {
		if strings.TrimSpace(m) == "" || fn == nil {
			return nil, fmt.Errorf("%w: %s: method %q has no implementation", ErrInvalidDefinition, name, m)
		}
		methods[m] = fn
	}

	hooks := make(map[string]Hook, len(def.Hooks))
	for _, h := range def.Hooks {
		if err := h.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := hooks[h.Name]; dup {
			return nil, fmt.Errorf("%w: %s::%s", ErrDuplicateHook, name, h.Name)
		}
		hooks[h.Name] = h
	}

	order := def.Order
	if order.IsZero() {
		key := configkeys.SideloadOrderOf(name)
		if raw, ok := binding.Lookup(ctx, key); ok {
			parsed, err := ParseOrderSpec(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			order = parsed
		}
	}

	policy, err := NewPolicy(ctx, def.Prefixes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Interceptor[T]{
		name:     name,
		target:   def.Target,
		methods:  methods,
		hooks:    hooks,
		resolver: NewResolver(def.Hooks, order),
		policy:   policy,
	}, nil
}

// MustNew is New that panics on error.
func MustNew[T any](ctx context.Context, def Definition[T]) *Interceptor[T] {
	i, err := New(ctx, def)
	if err != nil {
		panic(err)
	}
	return i
}

func (i *Interceptor[T]) Name() string {
	return i.name
}

func (i *Interceptor[T]) Target() T {
	return i.target
}

func (i *Interceptor[T]) Snapshot() Snapshot {
	return i.policy.Snapshot()
}

// Refresh re-reads prefixes and the logging decision from ctx.
func (i *Interceptor[T]) Refresh(ctx context.Context) error {
	return i.policy.Refresh(ctx)
}

// HookNames lists the hooks that would run for method in phase under the
// current prefixes.
func (i *Interceptor[T]) HookNames(phase Phase, method string) []string {
	prefix := i.policy.Snapshot().Prefixes.For(phase)
	return i.resolver.Resolve(phase, prefix, method)
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
