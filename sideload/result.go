package sideload

import "context"

// Producer computes the result of a call in place of the real method.
type Producer func(ctx context.Context, call Call) (any, error)

// PreResult is what a pre-hook hands to the next pre-hook, and what the last
// pre-hook hands to the dispatcher.
//
// Continue(v) lets the real method run; v is only informational for later
// pre-hooks. ShortCircuit(p) replaces the real method with p.
type PreResult struct {
	value    any
	producer Producer
}

// Continue carries value to the next pre-hook without bypassing the real method.
// Continue(nil) is "no opinion".
func Continue(value any) PreResult {
	return PreResult{value: value}
}

// ShortCircuit bypasses the real method; p produces the call result instead.
// Panics on a nil producer.
func ShortCircuit(p Producer) PreResult {
	if p == nil {
		panic("sideload: ShortCircuit with nil producer")
	}
	return PreResult{producer: p}
}

// ShortCircuitWith bypasses the real method and yields v.
func ShortCircuitWith(v any) PreResult {
	return ShortCircuit(func(context.Context, Call) (any, error) {
		return v, nil
	})
}

func (r PreResult) IsShortCircuit() bool {
	return r.producer != nil
}

// Value is the value carried by Continue. It is nil for a short-circuit.
func (r PreResult) Value() any {
	return r.value
}

// Producer is the producer carried by ShortCircuit, or nil.
func (r PreResult) Producer() Producer {
	return r.producer
}
