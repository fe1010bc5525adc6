package errors

import "fmt"

// Wrap adds context to errors at package boundaries.
// It returns nil if err is nil, allowing for safe inline usage.
//
// The wrapped error preserves the original error chain, enabling
// errors.Is() checks to continue working:
//
//	if err := trail.AppendRecord(ctx, rec, sig); err != nil {
//	    return errors.Wrap(err, "failed to persist record")
//	}
//
// Callers can still check for sentinel errors:
//
//	if errors.Is(err, errors.ErrDuplicateRecord) {
//	    // Surface the integrity violation
//	}
//
// IMPORTANT: Only wrap errors at package boundaries to avoid
// overly nested error messages.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context to errors at package boundaries.
// It returns nil if err is nil, allowing for safe inline usage.
//
//	return errors.Wrapf(err, "failed to destroy %s", path)
//
// Like Wrap, the wrapped error preserves the original error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// Join wraps err with a sentinel so that errors.Is matches both.
// Use it when a low-level error (e.g. *fs.PathError) must be classified
// under the wipecert taxonomy without losing the original cause.
func Join(sentinel, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
