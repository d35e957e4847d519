package middleware

import (
	"context"
	"time"
)

// Timeout gives the handler a context that expires after d. When the handler
// has not returned by then, a *TimeoutError is returned and the handler keeps
// running in the background until it notices ctx.Done().
func Timeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation) error {
			if d <= 0 {
				return next(ctx, inv)
			}
			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			result := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						result <- &RecoveryError{Panic: r, Command: commandName(inv)}
					}
				}()
				result <- next(tctx, inv)
			}()

			select {
			case err := <-result:
				return err
			case <-tctx.Done():
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &TimeoutError{Duration: d, Command: commandName(inv)}
			}
		}
	}
}
