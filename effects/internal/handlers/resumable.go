package handlers

import (
	"context"

	effectmodel "github.com/on-the-ground/wrapped_ive_go/effects/internal/model"
	"go.uber.org/zap"
)

// NewPartitionableResumableHandler starts config.NumWorkers workers, each
// answering the payloads hashed to it through handleFn.
func NewPartitionableResumableHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	ctx, cancelFn := context.WithCancel(ctx)
	return ResumableHandler[P, R]{
		effectScope: newEffectScope(
			NewPartitionedQueue(
				ctx,
				config.NumWorkers,
				config.BufferSize,
				func(ctx context.Context, msg ResumableEffectMessage[P, R]) {
					// ResumeCh is buffered, the send never blocks.
					msg.ResumeCh <- ResumableResultFrom(handleFn(ctx, msg.Payload))
					close(msg.ResumeCh)
				},
			),
			func() {
				teardown()
				cancelFn()
			},
		),
	}
}

type ResumableHandler[P any, R any] struct {
	*effectScope[ResumableEffectMessage[P, R]]
}

// PerformEffect enqueues payload and returns the channel its result arrives on.
// The channel always yields exactly one result, even when the handler is closed.
func (rh ResumableHandler[P, R]) PerformEffect(ctx context.Context, payload P) <-chan ResumableResult[R] {
	resumeCh := make(chan ResumableResult[R], 1)

	msg := ResumableEffectMessage[P, R]{
		Payload:  payload,
		ResumeCh: resumeCh,
	}
	if err := send(ctx, rh.dispatcher, msg); err != nil {
		zap.L().Debug(
			"failed to perform resumable effect",
			zap.String("effectId", rh.EffectId),
			zap.Any("payload", payload),
			zap.Error(err),
		)
		var zero R
		resumeCh <- ResumableResult[R]{Value: zero, Err: err}
		close(resumeCh)
	}

	return resumeCh
}

// ResumableResult represents the result of handled effects.
type ResumableResult[T any] struct {
	Value T
	Err   error
}

func ResumableResultFrom[R any](res R, err error) ResumableResult[R] {
	return ResumableResult[R]{Value: res, Err: err}
}

var _ effectmodel.Partitionable = ResumableEffectMessage[any, any]{}

type ResumableEffectMessage[P any, R any] struct {
	Payload  P
	ResumeCh chan ResumableResult[R]
}

func (rem ResumableEffectMessage[P, R]) PartitionKey() string {
	if p, ok := any(rem.Payload).(effectmodel.Partitionable); ok {
		return p.PartitionKey()
	}
	return ""
}
