// Package sideload intercepts method calls on a target and runs named hooks
// around them.
//
// Hooks are found by name. For the method "index" with the default prefixes,
// every pre-hook whose name starts with "preIndex" runs before the call and
// every post-hook starting with "postIndex" runs after it. Hooks run in
// registration order unless an OrderSpec, passed in the Definition or bound
// under sideload.order.<Interceptor>, says otherwise.
//
// Pre-hooks are chained: each receives the previous hook's PreResult. When the
// last one returns ShortCircuit, the real method is skipped and the producer
// supplies the result. Post-hooks are chained over that result.
//
// Configuration, logging and caching are reached through the effect handlers
// installed in the context (see effects/binding, effects/log and
// effects/cache), so an interceptor carries no global state.
//
// Example:
//
//	repo := sideload.MustNew(ctx, sideload.Definition[*Repository]{
//	    Name:   "Repository",
//	    Target: r,
//	    Methods: map[string]sideload.Method[*Repository]{
//	        "index": func(ctx context.Context, r *Repository, _ sideload.Args) (any, error) {
//	            return r.Index(ctx)
//	        },
//	    },
//	    Hooks: []sideload.Hook{
//	        sideload.Pre("preIndex", func(ctx context.Context, c sideload.Call, prev sideload.PreResult) (sideload.PreResult, error) {
//	            if v, ok, _ := cache.Get(ctx, "index"); ok {
//	                return sideload.ShortCircuitWith(v), nil
//	            }
//	            return prev, nil
//	        }),
//	    },
//	})
//
//	names, err := sideload.InvokeAs[[]string](ctx, repo, "index")
package sideload
