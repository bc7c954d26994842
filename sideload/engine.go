package sideload

import (
	"context"
	"fmt"
	"time"

	"github.com/on-the-ground/wrapped_ive_go/effects/log"
	"github.com/on-the-ground/wrapped_ive_go/shared/helper"
)

// Invoke runs method on the target with its pre and post hooks.
//
// Pre-hooks run first, each receiving the previous one's result. If the
// last of them short-circuits, its producer replaces the real method.
// Post-hooks then run over the call result and the last value they return
// is the result of Invoke. A nil from the post chain falls back to the call
// result.
//
// Any error is logged once at error level and returned as is. A panic is
// logged the same way and then re-raised.
func (i *Interceptor[T]) Invoke(ctx context.Context, method string, args ...any) (result any, err error) {
	snap := i.policy.Snapshot()
	call := Call{
		Interceptor: i.name,
		Method:      method,
		Args:        Args(args),
		Started:     time.Now(),
	}

	defer func() {
		if r := recover(); r != nil {
			i.logFailure(ctx, call, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	result, err = i.invoke(ctx, snap, &call)
	if err != nil {
		i.logFailure(ctx, call, err)
		return nil, err
	}
	if snap.ShouldLog {
		log.Debug(context.WithoutCancel(ctx), call.qualified(method)+" completed", map[string]any{
			"span": call.Span().Duration().String(),
		})
	}
	return result, nil
}

// InvokeAs is Invoke with the result asserted to R.
func InvokeAs[R any, T any](ctx context.Context, i *Interceptor[T], method string, args ...any) (R, error) {
	var zero R
	v, err := i.Invoke(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	return helper.AssertType[R](v)
}

func (i *Interceptor[T]) invoke(ctx context.Context, snap Snapshot, call *Call) (any, error) {
	pre, err := i.runPreHooks(ctx, snap, *call)
	if err != nil {
		return nil, err
	}

	var callResult any
	if pre.IsShortCircuit() {
		call.Skipped = true
		i.logInfo(ctx, snap, call.qualified(call.Method)+" skipped")
		callResult, err = pre.Producer()(ctx, call.forHook())
	} else {
		i.logInfo(ctx, snap, call.qualified(call.Method)+" called")
		callResult, err = i.callTarget(ctx, *call)
	}
	if err != nil {
		return nil, err
	}

	return i.runPostHooks(ctx, snap, *call, callResult)
}

func (i *Interceptor[T]) runPreHooks(ctx context.Context, snap Snapshot, call Call) (PreResult, error) {
	current := Continue(nil)
	for _, name := range i.resolver.Resolve(PhasePre, snap.Prefixes.Pre, call.Method) {
		i.logInfo(ctx, snap, call.qualified(name)+" called")
		next, err := i.hooks[name].pre(ctx, call.forHook(), current)
		if err != nil {
			return PreResult{}, err
		}
		current = next
	}
	return current, nil
}

func (i *Interceptor[T]) runPostHooks(ctx context.Context, snap Snapshot, call Call, callResult any) (any, error) {
	current := callResult
	for _, name := range i.resolver.Resolve(PhasePost, snap.Prefixes.Post, call.Method) {
		i.logInfo(ctx, snap, call.qualified(name)+" called")
		next, err := i.hooks[name].post(ctx, call.forHook(), current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	if current == nil {
		return callResult, nil
	}
	return current, nil
}

func (i *Interceptor[T]) callTarget(ctx context.Context, call Call) (any, error) {
	fn, ok := i.methods[call.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, call.qualified(call.Method))
	}
	return fn(ctx, i.target, call.Args)
}

// Engine logs detach from the caller's cancellation so that a call failing
// on a cancelled context still records its failure.
func (i *Interceptor[T]) logInfo(ctx context.Context, snap Snapshot, msg string) {
	if snap.ShouldLog {
		log.Info(context.WithoutCancel(ctx), msg, nil)
	}
}

// logFailure is not gated by the logging policy.
func (i *Interceptor[T]) logFailure(ctx context.Context, call Call, err error) {
	log.Error(context.WithoutCancel(ctx), call.qualified(call.Method)+" call threw exception", map[string]any{
		"interceptor": call.Interceptor,
		"method":      call.Method,
		"error":       err.Error(),
		"span":        call.Span().Duration().String(),
	})
}
