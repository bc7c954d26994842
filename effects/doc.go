// Package effects delivers capabilities to business code through context.Context.
//
// A capability (configuration bindings, a cache, a logger) is installed once by
// registering a handler with `WithXxxEffectHandler(ctx, ...)`. Code further down
// the call chain performs the capability with `Effect(ctx, ...)` and never holds
// a reference to the concrete implementation. This keeps interceptors and their
// hooks free of global state: the same hook runs against an in-memory cache in
// tests and against ristretto in production, selected only by the context it
// receives.
//
// Two handler shapes exist:
//   - Resumable, partitionable handlers answer each payload on a result channel.
//     Payloads with the same PartitionKey() are served by the same worker, in order.
//   - Fire-and-forget handlers consume payloads on a single worker, in order,
//     and flush buffered payloads when torn down.
//
// Example:
//
//	ctx, end := binding.WithEffectHandler(ctx, effects.NewEffectScopeConfig(1, 1),
//	    map[string]any{"app.env": "testing"})
//	defer end()
//
//	env, err := binding.GetTyped[string](ctx, "app.env")
package effects
