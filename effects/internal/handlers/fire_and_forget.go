package handlers

import (
	"context"

	"go.uber.org/zap"
)

// NewFireAndForgetHandler starts a single worker, so payloads are handled
// in the order they were fired.
func NewFireAndForgetHandler[P any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	ctx, cancelFn := context.WithCancel(ctx)
	return FireAndForgetHandler[P]{
		effectScope: newEffectScope(
			NewSingleQueue(
				ctx,
				bufferSize,
				func(ctx context.Context, msg fireAndForgetEffectMessage[P]) {
					handleFn(ctx, msg.payload)
				},
			),
			func() {
				teardown()
				cancelFn()
			},
		),
	}
}

type FireAndForgetHandler[P any] struct {
	*effectScope[fireAndForgetEffectMessage[P]]
}

// FireAndForgetEffect enqueues payload. Failures are only reported at debug level.
func (ffh FireAndForgetHandler[P]) FireAndForgetEffect(ctx context.Context, payload P) {
	msg := fireAndForgetEffectMessage[P]{payload: payload}
	if err := send(ctx, ffh.dispatcher, msg); err != nil {
		zap.L().Debug(
			"failed to fire effect",
			zap.String("effectId", ffh.EffectId),
			zap.Any("payload", payload),
			zap.Error(err),
		)
	}
}

type fireAndForgetEffectMessage[P any] struct {
	payload P
}
