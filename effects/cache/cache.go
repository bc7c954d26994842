package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/wrapped_ive_go/effects"
	effectmodel "github.com/on-the-ground/wrapped_ive_go/effects/internal/model"
	"github.com/on-the-ground/wrapped_ive_go/shared/helper"
)

// ErrNoSuchKey is returned by GetTyped when the key is absent.
var ErrNoSuchKey = errors.New("key not found")

// lookup is the result of a LoadPayload.
type lookup struct {
	value any
	ok    bool
}

// WithEffectHandler registers a resumable, partitionable effect handler serving
// the cache capability from store. Operations on the same key are handled by
// the same worker, in order.
func WithEffectHandler(
	ctx context.Context,
	config effects.EffectScopeConfig,
	store Store,
) (context.Context, func() context.Context) {
	h := cacheHandler{store: store}
	return effects.WithResumablePartitionableEffectHandler(
		ctx,
		config,
		effectmodel.EffectCache,
		h.handle,
	)
}

// Get reads key. A miss is (nil, false, nil).
func Get(ctx context.Context, key string) (any, bool, error) {
	res, err := effect(ctx, LoadPayload{Key: key})
	if err != nil {
		return nil, false, err
	}
	l := res.(lookup)
	return l.value, l.ok, nil
}

// GetTyped reads key as T. A miss is ErrNoSuchKey.
func GetTyped[T any](ctx context.Context, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		v, ok, err := Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchKey, key)
		}
		return v, nil
	})
}

func Set(ctx context.Context, key string, value any) error {
	_, err := effect(ctx, StorePayload{Key: key, Value: value})
	return err
}

func Delete(ctx context.Context, key string) error {
	_, err := effect(ctx, DeletePayload{Key: key})
	return err
}

// effect performs a cache operation using the EffectCache handler.
func effect(ctx context.Context, payload Payload) (any, error) {
	return effects.AwaitResumableEffect[Payload, any](ctx, effectmodel.EffectCache, payload)
}

type cacheHandler struct {
	store Store
}

// handle routes the given payload to the store.
func (h cacheHandler) handle(_ context.Context, payload Payload) (any, error) {
	switch payload := payload.(type) {
	case LoadPayload:
		v, ok, err := h.store.Get(payload.Key)
		if err != nil {
			return nil, err
		}
		return lookup{value: v, ok: ok}, nil
	case StorePayload:
		return nil, h.store.Set(payload.Key, payload.Value)
	case DeletePayload:
		return nil, h.store.Delete(payload.Key)
	default:
		// Payload is sealed; reaching here is a bug in this package.
		panic(fmt.Errorf("invalid cache operation: %s", describe(payload)))
	}
}
