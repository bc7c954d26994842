package effectmodel

import "errors"

type EffectEnum string

const (
	EffectLog     EffectEnum = "wrapped_ive_go_effect_enum_log"
	EffectCache   EffectEnum = "wrapped_ive_go_effect_enum_cache"
	EffectBinding EffectEnum = "wrapped_ive_go_effect_enum_binding"
)

// ErrNoEffectHandler is returned (or panicked with) when a capability is
// performed on a context that never registered a handler for it.
var ErrNoEffectHandler = errors.New("no effect handler registered for this effect")

type EffectScopeConfig struct {
	BufferSize int // default: 1
	NumWorkers int // default: 1
}

func NewEffectScopeConfig(bufferSize int, numWorkers int) EffectScopeConfig {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return EffectScopeConfig{
		BufferSize: bufferSize,
		NumWorkers: numWorkers,
	}
}

type Partitionable interface {
	PartitionKey() string
}
