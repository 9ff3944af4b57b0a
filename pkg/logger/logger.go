package logger

import (
	"context"
	"time"

	"gitlab.com/timkado/api/clinic-case-service/internal/reqctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global logger
var Log *zap.Logger

func init() {
	// Packages log before main calls Initialize (tests, cobra flag parsing).
	Log = zap.NewNop()
}

// Initialize sets up the global logger with the specified log level
func Initialize(level string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	utcTimeEncoder := func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}

	config := zap.Config{
		Level:    zap.NewAtomicLevelAt(zapLevel),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     utcTimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	Log = logger.With(zap.String("service", "clinic-case-service"))
	return nil
}

// WithLogger attaches a scoped logger to the context
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the context logger (or the global one) enriched with
// the request ID and the authenticated user when present.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Log
	}

	baseLogger := Log
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		baseLogger = logger
	}

	var fields []zap.Field
	if requestID, err := reqctx.RequestIDFromContext(ctx); err == nil {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if p, err := reqctx.PrincipalFromContext(ctx); err == nil {
		fields = append(fields, zap.String("user_id", p.UserID))
	}
	if len(fields) == 0 {
		return baseLogger
	}
	return baseLogger.With(fields...)
}

// Sync flushes any buffered log entries
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// FromContextOr returns the logger stored in ctx, falling back to
// defaultLogger and then the global logger.
func FromContextOr(ctx context.Context, defaultLogger *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	if defaultLogger != nil {
		return defaultLogger
	}
	return Log
}

type contextKey int

const (
	loggerKey contextKey = iota
)
