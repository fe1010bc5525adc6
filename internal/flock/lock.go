package flock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mrz1836/wipecert/internal/constants"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// Mode selects the kind of lock Acquire takes.
type Mode int

// Lock modes.
const (
	ModeExclusive Mode = iota
	ModeShared
)

// Lock is a lock file guarded by an advisory lock.
// The zero value is not usable; create one with New.
type Lock struct {
	path string
	mode Mode
	file *os.File
}

// New creates an exclusive Lock for the given lock file path.
// The file is created on Acquire if it does not exist.
func New(path string) *Lock {
	return &Lock{path: path, mode: ModeExclusive}
}

// NewShared creates a shared Lock for readers.
func NewShared(path string) *Lock {
	return &Lock{path: path, mode: ModeShared}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, retrying until timeout elapses or ctx is done.
// Returns an error wrapping errors.ErrLockTimeout when the timeout elapses.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, constants.FilePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return err
		}

		if err := l.try(f.Fd()); err == nil {
			l.file = f
			return nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return fmt.Errorf("%w after %v: %s", wcerrors.ErrLockTimeout, timeout, l.path)
		}

		timer := time.NewTimer(constants.LockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = f.Close()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release unlocks and closes the lock file. Safe to call when not held.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	_ = Unlock(l.file.Fd())
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Lock) try(fd uintptr) error {
	if l.mode == ModeShared {
		return Shared(fd)
	}
	return Exclusive(fd)
}
