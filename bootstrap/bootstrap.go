// Package bootstrap installs the effect handlers an interceptor expects:
// configuration bindings, structured logging and the cache.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/on-the-ground/wrapped_ive_go/effects"
	"github.com/on-the-ground/wrapped_ive_go/effects/binding"
	"github.com/on-the-ground/wrapped_ive_go/effects/cache"
	"github.com/on-the-ground/wrapped_ive_go/effects/configkeys"
	"github.com/on-the-ground/wrapped_ive_go/effects/log"
	"github.com/on-the-ground/wrapped_ive_go/shared/helper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrUnknownCacheBackend = errors.New("unknown cache backend")

// FromYAMLFile is FromYAML over the file at path.
func FromYAMLFile(ctx context.Context, path string, logger *zap.Logger) (context.Context, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()
	return FromYAML(ctx, f, logger)
}

// FromYAML validates the YAML document in r against the configuration
// schema and hands its bindings to FromMap.
func FromYAML(ctx context.Context, r io.Reader, logger *zap.Logger) (context.Context, func(), error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return ctx, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := Validate(doc); err != nil {
		return ctx, nil, err
	}
	return FromMap(ctx, binding.Flatten(doc), logger)
}

// FromMap binds DefaultConfig overridden by bindings, then installs the log
// and cache handlers sized from that configuration. A nil logger means
// zap.L(). The returned teardown closes the handlers in reverse order and
// flushes pending log entries.
func FromMap(ctx context.Context, bindings map[string]any, logger *zap.Logger) (context.Context, func(), error) {
	cfg := merge(bindings)
	if logger == nil {
		logger = zap.L()
	}

	bindingScope, err := scopeConfig(cfg,
		configkeys.ConfigEffectBindingHandlerBufferSize,
		configkeys.ConfigEffectBindingHandlerNumWorkers,
	)
	if err != nil {
		return ctx, nil, err
	}
	cacheScope, err := scopeConfig(cfg,
		configkeys.ConfigEffectCacheHandlerBufferSize,
		configkeys.ConfigEffectCacheHandlerNumWorkers,
	)
	if err != nil {
		return ctx, nil, err
	}
	logBufferSize, err := intOr(cfg, configkeys.ConfigEffectLogHandlerBufferSize, 1)
	if err != nil {
		return ctx, nil, err
	}
	store, closeStore, err := newStore(cfg)
	if err != nil {
		return ctx, nil, err
	}

	ctx, endOfBinding := binding.WithEffectHandler(ctx, bindingScope, cfg)
	ctx, endOfLog := log.WithZapEffectHandler(ctx, logBufferSize, logger)
	ctx, endOfCache := cache.WithEffectHandler(ctx, cacheScope, store)

	return ctx, func() {
		endOfCache()
		closeStore()
		endOfLog()
		endOfBinding()
	}, nil
}

func scopeConfig(cfg map[string]any, bufferSizeKey, numWorkersKey string) (effects.EffectScopeConfig, error) {
	bufferSize, err := intOr(cfg, bufferSizeKey, 1)
	if err != nil {
		return effects.EffectScopeConfig{}, err
	}
	numWorkers, err := intOr(cfg, numWorkersKey, 1)
	if err != nil {
		return effects.EffectScopeConfig{}, err
	}
	return effects.NewEffectScopeConfig(bufferSize, numWorkers), nil
}

func newStore(cfg map[string]any) (cache.Store, func(), error) {
	backend, err := stringOr(cfg, configkeys.SideloadCacheBackend, CacheBackendMemory)
	if err != nil {
		return nil, nil, err
	}
	switch backend {
	case CacheBackendMemory:
		return cache.NewInMemoryStore(), func() {}, nil
	case CacheBackendRistretto:
		rc := cache.DefaultRistrettoConfig()
		maxCost, err := intOr(cfg, configkeys.SideloadCacheMaxCost, int(rc.MaxCost))
		if err != nil {
			return nil, nil, err
		}
		rc.MaxCost = int64(maxCost)
		store, err := cache.NewRistrettoStore(rc)
		if err != nil {
			return nil, nil, err
		}
		closeStore := func() {}
		if c, ok := store.(interface{ Close() }); ok {
			closeStore = c.Close
		}
		return store, closeStore, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownCacheBackend, backend)
	}
}

func intOr(cfg map[string]any, key string, fallback int) (int, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return fallback, nil
	}
	n, err := helper.AssertType[int](v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func stringOr(cfg map[string]any, key, fallback string) (string, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return fallback, nil
	}
	s, err := helper.AssertType[string](v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}
