package middleware

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
)

// Recovery turns a panic in the handler into a *RecoveryError. With
// WithStackTrace(true) the stack is captured and printed to stderr.
func Recovery(options ...MiddlewareOption) Middleware {
	return RecoveryTo(os.Stderr, options...)
}

// RecoveryTo is Recovery printing stack traces to w
func RecoveryTo(w io.Writer, options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				rerr := &RecoveryError{Panic: r, Command: commandName(inv)}
				if config.PrintStack {
					rerr.Stack = stack(config.StackSize)
					fmt.Fprintf(w, "PANIC in command '%s': %v\n", rerr.Command, r)
					fmt.Fprintf(w, "Stack trace:\n%s\n", rerr.Stack)
				}
				err = rerr
			}()

			return next(ctx, inv)
		}
	}
}

// RecoveryWithHandler hands recovered panics to handler, whose result
// becomes the handler error
func RecoveryWithHandler(handler func(panicVal any, command string, stack []byte) error, options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var s []byte
					if config.PrintStack {
						s = stack(config.StackSize)
					}
					err = handler(r, commandName(inv), s)
				}
			}()

			return next(ctx, inv)
		}
	}
}

func stack(size int) []byte {
	if size <= 0 {
		size = 4096
	}
	buf := make([]byte, size)
	return buf[:runtime.Stack(buf, false)]
}
