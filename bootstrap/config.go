package bootstrap

import (
	"maps"
	"strings"

	"github.com/on-the-ground/wrapped_ive_go/effects/binding"
)

const (
	CacheBackendMemory    = "memory"
	CacheBackendRistretto = "ristretto"
)

// DefaultConfigYAML is the configuration every process starts from. Values
// loaded by FromYAML, FromYAMLFile or FromMap override it key by key.
const DefaultConfigYAML = `
app:
  env: production

sideload:
  # "*" logs everywhere, a name logs in that environment only, a list logs
  # in each listed environment, null never logs.
  log_in_environment: "*"
  prefix:
    pre: pre
    post: post
  cache:
    backend: memory
    max_cost: 67108864

config:
  effect:
    binding:
      handler:
        buffer_size: 1
        num_workers: 1
    cache:
      handler:
        buffer_size: 16
        num_workers: 4
    log:
      handler:
        buffer_size: 64
`

// DefaultConfig returns a fresh binding map of DefaultConfigYAML.
func DefaultConfig() map[string]any {
	m, err := binding.LoadYAML(strings.NewReader(DefaultConfigYAML))
	if err != nil {
		panic(err)
	}
	return m
}

// merge overlays bindings on top of DefaultConfig.
func merge(bindings map[string]any) map[string]any {
	out := DefaultConfig()
	maps.Copy(out, bindings)
	return out
}
