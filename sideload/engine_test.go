package sideload_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/on-the-ground/wrapped_ive_go/effects/configkeys"
	"github.com/on-the-ground/wrapped_ive_go/effects/log"
	"github.com/on-the-ground/wrapped_ive_go/sideload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type greeter struct {
	mu    sync.Mutex
	calls int
}

func (g *greeter) greet(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return "hello " + name
}

func (g *greeter) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var errBoom = errors.New("boom")

func greeterMethods() map[string]sideload.Method[*greeter] {
	return map[string]sideload.Method[*greeter]{
		"greet": func(_ context.Context, g *greeter, args sideload.Args) (any, error) {
			name, err := sideload.Arg[string](args, 0)
			if err != nil {
				return nil, err
			}
			return g.greet(name), nil
		},
		"fail": func(context.Context, *greeter, sideload.Args) (any, error) {
			return nil, errBoom
		},
		"explode": func(context.Context, *greeter, sideload.Args) (any, error) {
			panic("kaboom")
		},
		"wait": func(ctx context.Context, _ *greeter, _ sideload.Args) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

// testScope binds cfg and installs an observed logger. logs is complete once
// end has been called.
func testScope(t *testing.T, cfg map[string]any) (ctx context.Context, end func(), logs *observer.ObservedLogs) {
	t.Helper()
	ctx = withBindings(t, context.Background(), cfg)
	ctx, endLog, logs := log.WithObservedEffectHandler(ctx, zap.InfoLevel)
	var once sync.Once
	end = func() { once.Do(func() { endLog() }) }
	t.Cleanup(end)
	return ctx, end, logs
}

var loggingOn = map[string]any{
	configkeys.AppEnvironment:           "testing",
	configkeys.SideloadLogInEnvironment: "*",
}

var loggingOff = map[string]any{
	configkeys.AppEnvironment:           "testing",
	configkeys.SideloadLogInEnvironment: nil,
}

func messages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		out = append(out, e.Message)
	}
	return out
}

func TestInvoke_NoHooks(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOn)
	g := &greeter{}
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{Target: g, Methods: greeterMethods()})
	require.NoError(t, err)
	assert.Equal(t, "greeter", i.Name())

	got, err := sideload.InvokeAs[string](ctx, i, "greet", "ada")
	require.NoError(t, err)
	assert.Equal(t, "hello ada", got)
	assert.Equal(t, 1, g.callCount())

	end()
	assert.Equal(t, []string{"greeter::greet called"}, messages(logs))
}

func TestInvoke_ChainedPreHooks(t *testing.T) {
	ctx, _, _ := testScope(t, loggingOff)
	var seen []any
	record := func(name string, next sideload.PreResult) sideload.Hook {
		return sideload.Pre(name, func(_ context.Context, _ sideload.Call, prev sideload.PreResult) (sideload.PreResult, error) {
			seen = append(seen, prev.Value())
			return next, nil
		})
	}
	g := &greeter{}
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  g,
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			record("preGreetFirst", sideload.Continue("a")),
			record("preGreetSecond", sideload.Continue("b")),
			record("preGreetThird", sideload.Continue(nil)),
		},
	})
	require.NoError(t, err)

	got, err := i.Invoke(ctx, "greet", "bob")
	require.NoError(t, err)
	assert.Equal(t, "hello bob", got)
	assert.Equal(t, []any{nil, "a", "b"}, seen)
	assert.Equal(t, 1, g.callCount())
}

func TestInvoke_LastPreResultWins(t *testing.T) {
	ctx, _, _ := testScope(t, loggingOff)
	g := &greeter{}
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Target:  g,
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Pre("preGreetCache", func(context.Context, sideload.Call, sideload.PreResult) (sideload.PreResult, error) {
				return sideload.ShortCircuitWith("cached"), nil
			}),
			sideload.Pre("preGreetReset", func(context.Context, sideload.Call, sideload.PreResult) (sideload.PreResult, error) {
				return sideload.Continue(nil), nil
			}),
		},
	})
	require.NoError(t, err)

	got, err := i.Invoke(ctx, "greet", "eve")
	require.NoError(t, err)
	assert.Equal(t, "hello eve", got)
	assert.Equal(t, 1, g.callCount())
}

func TestInvoke_ShortCircuit(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOn)
	g := &greeter{}
	var postSawSkipped bool
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  g,
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Pre("preGreet", func(_ context.Context, _ sideload.Call, _ sideload.PreResult) (sideload.PreResult, error) {
				return sideload.ShortCircuit(func(_ context.Context, c sideload.Call) (any, error) {
					name, err := sideload.Arg[string](c.Args, 0)
					return "cached " + name, err
				}), nil
			}),
			sideload.Post("postGreet", func(_ context.Context, c sideload.Call, result any) (any, error) {
				postSawSkipped = c.Skipped
				return result, nil
			}),
		},
	})
	require.NoError(t, err)

	got, err := sideload.InvokeAs[string](ctx, i, "greet", "kim")
	require.NoError(t, err)
	assert.Equal(t, "cached kim", got)
	assert.Zero(t, g.callCount())
	assert.True(t, postSawSkipped)

	end()
	assert.Equal(t, []string{
		"Greeter::preGreet called",
		"Greeter::greet skipped",
		"Greeter::postGreet called",
	}, messages(logs))
}

func TestInvoke_PostHooksTransformResult(t *testing.T) {
	ctx, _, _ := testScope(t, loggingOff)
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Target:  &greeter{},
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Post("postGreetUpper", func(_ context.Context, c sideload.Call, result any) (any, error) {
				assert.False(t, c.Skipped)
				return strings.ToUpper(result.(string)), nil
			}),
			sideload.Post("postGreetBang", func(_ context.Context, _ sideload.Call, result any) (any, error) {
				return result.(string) + "!", nil
			}),
		},
		Order: sideload.Order("postGreetUpper", "postGreetBang"),
	})
	require.NoError(t, err)

	got, err := i.Invoke(ctx, "greet", "lee")
	require.NoError(t, err)
	assert.Equal(t, "HELLO LEE!", got)
}

func TestInvoke_OrderFromConfiguration(t *testing.T) {
	cfg := map[string]any{
		configkeys.SideloadOrderOf("Greeter"): []any{
			map[string]any{"preGreet": []any{"preGreetB", "preGreetA"}},
		},
	}
	ctx, _, _ := testScope(t, cfg)
	var ran []string
	hook := func(name string) sideload.Hook {
		return sideload.Pre(name, func(_ context.Context, _ sideload.Call, prev sideload.PreResult) (sideload.PreResult, error) {
			ran = append(ran, name)
			return prev, nil
		})
	}
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  &greeter{},
		Methods: greeterMethods(),
		Hooks:   []sideload.Hook{hook("preGreetA"), hook("preGreetB")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"preGreetB", "preGreetA"}, i.HookNames(sideload.PhasePre, "greet"))

	_, err = i.Invoke(ctx, "greet", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"preGreetB", "preGreetA"}, ran)
}

func TestInvoke_ErrorPropagation(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOff)
	hookErr := errors.New("hook failed")
	postRan := false
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  &greeter{},
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Pre("preGreet", func(_ context.Context, c sideload.Call, prev sideload.PreResult) (sideload.PreResult, error) {
				if c.Args[0] == "bad" {
					return prev, hookErr
				}
				return prev, nil
			}),
			sideload.Post("postFail", func(_ context.Context, _ sideload.Call, result any) (any, error) {
				postRan = true
				return result, nil
			}),
		},
	})
	require.NoError(t, err)

	_, err = i.Invoke(ctx, "fail")
	assert.Same(t, errBoom, err)
	assert.False(t, postRan)

	_, err = i.Invoke(ctx, "greet", "bad")
	assert.Same(t, hookErr, err)

	end()
	failures := logs.FilterMessage("Greeter::fail call threw exception").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zap.ErrorLevel, failures[0].Level)
	assert.Equal(t, "fail", failures[0].ContextMap()["method"])
	assert.Equal(t, "boom", failures[0].ContextMap()["error"])
	assert.Equal(t, 1, logs.FilterMessage("Greeter::greet call threw exception").Len())
	assert.Equal(t, 2, logs.Len(), "failures are logged even when logging is off")
}

func TestInvoke_PostHookError(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOff)
	postErr := errors.New("post failed")
	laterRan := false
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  &greeter{},
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Post("postGreetCheck", func(context.Context, sideload.Call, any) (any, error) {
				return nil, postErr
			}),
			sideload.Post("postGreetLater", func(_ context.Context, _ sideload.Call, result any) (any, error) {
				laterRan = true
				return result, nil
			}),
		},
		Order: sideload.Order("postGreetCheck", "postGreetLater"),
	})
	require.NoError(t, err)

	got, err := i.Invoke(ctx, "greet", "ann")
	assert.Same(t, postErr, err)
	assert.Nil(t, got)
	assert.False(t, laterRan)

	end()
	failures := logs.FilterMessage("Greeter::greet call threw exception").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "post failed", failures[0].ContextMap()["error"])
	assert.Equal(t, 1, logs.Len())
}

func TestInvoke_ShortCircuitProducerError(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOff)
	producerErr := errors.New("producer failed")
	postRan := false
	g := &greeter{}
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  g,
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Pre("preGreet", func(context.Context, sideload.Call, sideload.PreResult) (sideload.PreResult, error) {
				return sideload.ShortCircuit(func(context.Context, sideload.Call) (any, error) {
					return nil, producerErr
				}), nil
			}),
			sideload.Post("postGreet", func(_ context.Context, _ sideload.Call, result any) (any, error) {
				postRan = true
				return result, nil
			}),
		},
	})
	require.NoError(t, err)

	_, err = i.Invoke(ctx, "greet", "ann")
	assert.Same(t, producerErr, err)
	assert.False(t, postRan)
	assert.Zero(t, g.callCount())

	end()
	failures := logs.FilterMessage("Greeter::greet call threw exception").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "producer failed", failures[0].ContextMap()["error"])
	assert.Equal(t, 1, logs.Len())
}

func TestInvoke_CancelledContextStillLogs(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOn)
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  &greeter{},
		Methods: greeterMethods(),
	})
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()

	const calls = 100
	for range calls {
		_, err := i.Invoke(cctx, "wait")
		assert.ErrorIs(t, err, context.Canceled)
	}

	end()
	assert.Equal(t, calls, logs.FilterMessage("Greeter::wait called").Len())
	assert.Equal(t, calls, logs.FilterMessage("Greeter::wait call threw exception").Len())
}

func TestInvoke_NilPostResultFallsBackToCallResult(t *testing.T) {
	ctx, _, _ := testScope(t, loggingOff)
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Target:  &greeter{},
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Post("postGreetAudit", func(context.Context, sideload.Call, any) (any, error) {
				return nil, nil
			}),
		},
	})
	require.NoError(t, err)

	got, err := sideload.InvokeAs[string](ctx, i, "greet", "joe")
	require.NoError(t, err)
	assert.Equal(t, "hello joe", got)
}

func TestInvoke_PanicIsLoggedAndRepanicked(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOff)
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  &greeter{},
		Methods: greeterMethods(),
	})
	require.NoError(t, err)

	assert.PanicsWithValue(t, "kaboom", func() {
		_, _ = i.Invoke(ctx, "explode")
	})

	end()
	assert.Equal(t, 1, logs.FilterMessage("Greeter::explode call threw exception").Len())
}

func TestInvoke_UnknownMethod(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOff)
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Name:    "Greeter",
		Target:  &greeter{},
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Pre("preMissingCached", func(context.Context, sideload.Call, sideload.PreResult) (sideload.PreResult, error) {
				return sideload.ShortCircuitWith(42), nil
			}),
		},
	})
	require.NoError(t, err)

	_, err = i.Invoke(ctx, "vanish")
	assert.ErrorIs(t, err, sideload.ErrUnknownMethod)

	// a short-circuit never reaches the method table
	got, err := i.Invoke(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	end()
	assert.Equal(t, 1, logs.Len())
}

func TestInvoke_HooksCannotAlterArgs(t *testing.T) {
	ctx, _, _ := testScope(t, loggingOff)
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Target:  &greeter{},
		Methods: greeterMethods(),
		Hooks: []sideload.Hook{
			sideload.Pre("preGreet", func(_ context.Context, c sideload.Call, prev sideload.PreResult) (sideload.PreResult, error) {
				c.Args[0] = "mallory"
				return prev, nil
			}),
		},
	})
	require.NoError(t, err)

	got, err := i.Invoke(ctx, "greet", "alice")
	require.NoError(t, err)
	assert.Equal(t, "hello alice", got)
}

func TestInvoke_LoggingGate(t *testing.T) {
	hooks := []sideload.Hook{preNoop("preGreet"), postNoop("postGreet")}
	tests := []struct {
		name   string
		policy any
		want   int
	}{
		{"wildcard", "*", 3},
		{"current env", "testing", 3},
		{"env list", []any{"local", "testing"}, 3},
		{"foreign list", []any{"local", "production"}, 0},
		{"null", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, end, logs := testScope(t, map[string]any{
				configkeys.AppEnvironment:           "testing",
				configkeys.SideloadLogInEnvironment: tt.policy,
			})
			i, err := sideload.New(ctx, sideload.Definition[*greeter]{
				Target:  &greeter{},
				Methods: greeterMethods(),
				Hooks:   hooks,
			})
			require.NoError(t, err)

			for range 2 {
				_, err = i.Invoke(ctx, "greet", "sam")
				require.NoError(t, err)
			}
			end()
			assert.Equal(t, 2*tt.want, logs.Len())
		})
	}
}

func TestInvoke_Refresh(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOff)
	i, err := sideload.New(ctx, sideload.Definition[*greeter]{
		Target:  &greeter{},
		Methods: greeterMethods(),
	})
	require.NoError(t, err)

	_, err = i.Invoke(ctx, "greet", "a")
	require.NoError(t, err)

	loud := withBindings(t, ctx, loggingOn)
	require.NoError(t, i.Refresh(loud))
	assert.True(t, i.Snapshot().ShouldLog)

	_, err = i.Invoke(ctx, "greet", "b")
	require.NoError(t, err)

	end()
	assert.Equal(t, 1, logs.Len())
}

func TestInvoke_InvokeAsTypeMismatch(t *testing.T) {
	ctx, _, _ := testScope(t, loggingOff)
	i := sideload.MustNew(ctx, sideload.Definition[*greeter]{
		Target:  &greeter{},
		Methods: greeterMethods(),
	})

	_, err := sideload.InvokeAs[int](ctx, i, "greet", "x")
	assert.Error(t, err)

	_, err = sideload.InvokeAs[string](ctx, i, "greet", 5)
	assert.ErrorIs(t, err, sideload.ErrArgument)
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()
	methods := greeterMethods()

	tests := []struct {
		name string
		def  sideload.Definition[*greeter]
		want error
	}{
		{
			name: "nil method",
			def:  sideload.Definition[*greeter]{Methods: map[string]sideload.Method[*greeter]{"greet": nil}},
			want: sideload.ErrInvalidDefinition,
		},
		{
			name: "empty method name",
			def:  sideload.Definition[*greeter]{Methods: map[string]sideload.Method[*greeter]{"": methods["greet"]}},
			want: sideload.ErrInvalidDefinition,
		},
		{
			name: "empty hook name",
			def:  sideload.Definition[*greeter]{Hooks: []sideload.Hook{preNoop(" ")}},
			want: sideload.ErrInvalidHook,
		},
		{
			name: "hook without function",
			def:  sideload.Definition[*greeter]{Hooks: []sideload.Hook{{Name: "preGreet"}}},
			want: sideload.ErrInvalidHook,
		},
		{
			name: "duplicate hook",
			def:  sideload.Definition[*greeter]{Hooks: []sideload.Hook{preNoop("preGreet"), postNoop("preGreet")}},
			want: sideload.ErrDuplicateHook,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sideload.New(ctx, tt.def)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_MalformedConfiguredOrder(t *testing.T) {
	ctx := withBindings(t, context.Background(), map[string]any{
		configkeys.SideloadOrderOf("Greeter"): "preGreetA",
	})
	_, err := sideload.New(ctx, sideload.Definition[*greeter]{Name: "Greeter", Methods: greeterMethods()})
	assert.ErrorIs(t, err, sideload.ErrMalformedOrder)

	assert.Panics(t, func() {
		sideload.MustNew(ctx, sideload.Definition[*greeter]{Name: "Greeter"})
	})

	// an explicit order takes precedence over configuration
	_, err = sideload.New(ctx, sideload.Definition[*greeter]{
		Name:  "Greeter",
		Order: sideload.Order("preGreetA"),
	})
	assert.NoError(t, err)
}

func TestInvoke_Concurrent(t *testing.T) {
	ctx, end, logs := testScope(t, loggingOn)
	g := &greeter{}
	i := sideload.MustNew(ctx, sideload.Definition[*greeter]{
		Target:  g,
		Methods: greeterMethods(),
		Hooks:   []sideload.Hook{preNoop("preGreet")},
	})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := i.Invoke(ctx, "greet", "n")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	end()
	assert.Equal(t, 20, g.callCount())
	assert.Equal(t, 40, logs.Len())
}
