package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// WithTestEffectHandler installs a development console logger on stdout.
func WithTestEffectHandler(
	ctx context.Context,
) (context.Context, func() context.Context) {
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		zap.DebugLevel,
	)
	return WithZapEffectHandler(
		ctx,
		1,
		zap.New(consoleCore),
	)
}

// WithObservedEffectHandler installs a logger that records entries at or above
// level in memory. Entries are complete once the returned teardown has run.
func WithObservedEffectHandler(
	ctx context.Context,
	level zapcore.Level,
) (context.Context, func() context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	ctx, end := WithZapEffectHandler(ctx, 64, zap.New(core))
	return ctx, end, logs
}
