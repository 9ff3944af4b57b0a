package utils

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"go.uber.org/zap"
)

// RecoverFn is a function that handles a recovered panic
type RecoverFn func(r interface{}, stack []byte)

// SafeGo runs fn on its own goroutine. A panic is passed to onPanic, or
// logged when onPanic is nil.
func SafeGo(fn func(), onPanic RecoverFn) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				if onPanic != nil {
					onPanic(r, stack)
					return
				}
				logPanic(logger.Log, "goroutine", r, stack)
			}
		}()
		fn()
	}()
}

// RecoverWithLog must be deferred directly. It logs a panic raised during
// operation using the context logger.
func RecoverWithLog(ctx context.Context, operation string) {
	if r := recover(); r != nil {
		logPanic(logger.FromContext(ctx), operation, r, debug.Stack())
	}
}

// WrapWithContextRecovery converts a panic inside fn into a returned error.
func WrapWithContextRecovery(fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger.FromContext(ctx), "wrapped call", r, debug.Stack())
				err = fmt.Errorf("panic recovered: %v", r)
			}
		}()
		return fn(ctx)
	}
}

func logPanic(log *zap.Logger, operation string, r interface{}, stack []byte) {
	if log == nil {
		fmt.Fprintf(os.Stderr, "[PANIC] recovered during %s: %v\n%s\n", operation, r, stack)
		return
	}
	log.Error("[panic] recovered",
		zap.String("operation", operation),
		zap.Any("panic", r),
		zap.ByteString("stack", stack),
	)
}
