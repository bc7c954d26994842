package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/wrapped_ive_go/effects"
	effectmodel "github.com/on-the-ground/wrapped_ive_go/effects/internal/model"
	"github.com/on-the-ground/wrapped_ive_go/shared/helper"
)

// ErrKeyNotFound is returned when neither this scope nor any upper scope binds the key.
var ErrKeyNotFound = errors.New("key not found")

// Payload defines a key-based lookup payload.
// Used as input to the Binding effect.
type Payload string

func (bp Payload) PartitionKey() string {
	return string(bp)
}

// WithEffectHandler registers a resumable, partitionable effect handler for bindings.
//
//   - Accepts a key-value map used for lookups. The map is copied and never mutated.
//   - Allows fallback to upper scopes if a key is not found locally.
//   - Returns a context with the effect handler registered.
//   - Returns a teardown function to close the handler; the context it returns
//     is the one passed in.
func WithEffectHandler(
	ctx context.Context,
	config effects.EffectScopeConfig,
	bindingMap map[string]any,
) (context.Context, func() context.Context) {
	bindingHandler := &bindingHandler{
		bindingMap: normalizeBindingMap(bindingMap),
	}
	return effects.WithResumablePartitionableEffectHandler[Payload, any](
		ctx,
		config,
		effectmodel.EffectBinding,
		bindingHandler.handle,
	)
}

// Effect performs a key-based lookup using the Binding effect handler.
//
// Returns either the value found or ErrKeyNotFound if no scope binds the key.
// Panics if ctx carries no binding handler at all.
func Effect(ctx context.Context, key string) (any, error) {
	return effects.AwaitResumableEffect[Payload, any](ctx, effectmodel.EffectBinding, Payload(key))
}

// Lookup is the comma-ok variant of Effect. A missing handler reads as an unbound key.
func Lookup(ctx context.Context, key string) (any, bool) {
	if !effects.HasEffectHandler(ctx, effectmodel.EffectBinding) {
		return nil, false
	}
	v, err := Effect(ctx, key)
	if err != nil {
		return nil, false
	}
	return v, true
}

// GetTyped fetches a typed value bound to key.
// Returns a zero value and error if the key is not found or the type is mismatched.
func GetTyped[T any](ctx context.Context, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

// GetTypedOr is GetTyped with a fallback for unbound keys and missing handlers.
// A bound value of the wrong type is still an error.
func GetTypedOr[T any](ctx context.Context, key string, fallback T) (T, error) {
	v, ok := Lookup(ctx, key)
	if !ok {
		return fallback, nil
	}
	return helper.AssertType[T](v)
}

// MustGetTyped is the panic-on-failure variant of GetTyped.
func MustGetTyped[T any](ctx context.Context, key string) T {
	return helper.MustGetTypedValue[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

// normalizeBindingMap copies bm so later writes by the caller are not observed.
func normalizeBindingMap(bm map[string]any) map[string]any {
	out := make(map[string]any, len(bm))
	for k, v := range bm {
		out[k] = v
	}
	return out
}

// delegateBindingEffect asks the upper scope, if there is one.
func delegateBindingEffect(upperCtx context.Context, key string) (any, error) {
	if !effects.HasEffectHandler(upperCtx, effectmodel.EffectBinding) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return Effect(upperCtx, key)
}

type bindingHandler struct {
	bindingMap map[string]any
}

// handle looks up the key in the local bindingMap.
// - If found: returns the value.
// - If not found: delegates to an upper handler (if available).
// - Otherwise: returns a key-not-found error.
func (bh bindingHandler) handle(ctx context.Context, payload Payload) (any, error) {
	key := string(payload)
	v, ok := bh.bindingMap[key]
	if !ok {
		return delegateBindingEffect(ctx, key)
	}
	return v, nil
}
