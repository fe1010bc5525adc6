// Package ctxutil provides context utility functions.
package ctxutil

import (
	"context"
	"fmt"
)

// Canceled checks if the context has been canceled or exceeded its deadline.
// Returns the context error if done (Canceled or DeadlineExceeded), nil otherwise.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}

// Before reports a canceled context as an error naming the operation that was
// about to start. Operations that must not be interrupted once begun (an
// overwrite pass, a log append) call it once at entry and never again.
func Before(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s not started: %w", op, err)
	}
	return nil
}
