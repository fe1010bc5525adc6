// Package flock provides cross-platform advisory file locking.
//
// wipecert uses it for two cross-process invariants: a deployment never
// generates two signing keys, and audit trail appends never interleave.
// The primitives are non-blocking; Lock adds retry with a timeout and
// context cancellation on top of them.
//
// Usage:
//
//	lock := flock.New(path + ".lock")
//	if err := lock.Acquire(ctx, 5*time.Second); err != nil {
//	    return err // errors.Is(err, errors.ErrLockTimeout) after the timeout
//	}
//	defer func() { _ = lock.Release() }()
package flock
