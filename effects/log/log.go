package log

import (
	"context"
	"maps"
	"slices"

	"github.com/on-the-ground/wrapped_ive_go/effects"
	effectmodel "github.com/on-the-ground/wrapped_ive_go/effects/internal/model"
	"go.uber.org/zap"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// LogPayload is the payload structure for logging effect.
// It contains the log level, message string, and optional structured fields.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]any
}

// WithZapEffectHandler registers a fire-and-forget log effect handler using zap.Logger.
// The returned context includes the handler under the EffectLog enum.
// The teardown flushes buffered entries, syncs the logger and returns the parent context.
func WithZapEffectHandler(
	ctx context.Context,
	bufferSize int,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectLog,
		func(ctx context.Context, payload LogPayload) {
			fields := make([]zap.Field, 0, len(payload.Fields))
			for _, k := range slices.Sorted(maps.Keys(payload.Fields)) {
				fields = append(fields, zap.Any(k, payload.Fields[k]))
			}

			switch payload.Level {
			case LogInfo:
				logger.Info(payload.Message, fields...)
			case LogWarn:
				logger.Warn(payload.Message, fields...)
			case LogError:
				logger.Error(payload.Message, fields...)
			case LogDebug:
				logger.Debug(payload.Message, fields...)
			default:
				logger.Info(payload.Message, fields...)
			}
		},
		func() {
			// Sync fails on stdout/stderr sinks on some platforms; nothing to recover.
			_ = logger.Sync()
		},
	)
}

// Effect emits a structured log entry through the log handler in ctx.
// Logging is fire-and-forget: without a registered handler the entry is dropped.
func Effect(ctx context.Context, level LogLevel, msg string, fields map[string]any) {
	if !effects.HasEffectHandler(ctx, effectmodel.EffectLog) {
		return
	}
	effects.FireAndForgetEffect(ctx, effectmodel.EffectLog, LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

func Info(ctx context.Context, msg string, fields map[string]any) {
	Effect(ctx, LogInfo, msg, fields)
}

func Error(ctx context.Context, msg string, fields map[string]any) {
	Effect(ctx, LogError, msg, fields)
}

func Debug(ctx context.Context, msg string, fields map[string]any) {
	Effect(ctx, LogDebug, msg, fields)
}
