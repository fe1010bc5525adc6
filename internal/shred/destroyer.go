package shred

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/ctxutil"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// PassObserver is called after each completed and synced pass.
type PassObserver func(path string, pass, total int)

// Destroyer overwrites and removes files. It is safe for concurrent use.
type Destroyer struct {
	passes   int
	random   io.Reader
	remove   func(string) error
	observer PassObserver
	logger   zerolog.Logger

	locks pathLocks
}

// Option configures a Destroyer.
type Option func(*Destroyer)

// WithPasses sets the number of overwrite passes. Values outside
// [constants.MinPasses, constants.MaxPasses] are clamped.
func WithPasses(n int) Option {
	return func(d *Destroyer) {
		d.passes = max(constants.MinPasses, min(n, constants.MaxPasses))
	}
}

// WithRandom sets the source of overwrite bytes.
func WithRandom(r io.Reader) Option {
	return func(d *Destroyer) {
		if r != nil {
			d.random = r
		}
	}
}

// WithRemover replaces os.Remove for the final unlink.
func WithRemover(remove func(string) error) Option {
	return func(d *Destroyer) {
		if remove != nil {
			d.remove = remove
		}
	}
}

// WithPassObserver registers a callback for pass progress.
func WithPassObserver(fn PassObserver) Option {
	return func(d *Destroyer) {
		d.observer = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Destroyer) {
		d.logger = logger
	}
}

// New creates a Destroyer with constants.DefaultPasses passes of
// crypto/rand bytes.
func New(opts ...Option) *Destroyer {
	d := &Destroyer{
		passes: constants.DefaultPasses,
		random: rand.Reader,
		remove: os.Remove,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Passes returns the configured pass count.
func (d *Destroyer) Passes() int {
	return d.passes
}

// Destroy overwrites the file at path and removes it.
//
// Errors:
//   - errors.ErrNotFound when path does not exist; nothing is touched.
//   - errors.ErrIO when path is not a regular file, cannot be opened for
//     writing or a pass fails; the file is not removed. Only a failed pass
//     reports a touched outcome.
//   - errors.ErrPartialDestroy when every pass succeeded but removal failed.
//
// The returned outcome is meaningful in every case except ErrNotFound.
func (d *Destroyer) Destroy(ctx context.Context, path string) (domain.DestroyOutcome, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.DestroyOutcome{}, wcerrors.Join(wcerrors.ErrIO, err)
	}

	unlock := d.locks.lock(abs)
	defer unlock()

	outcome := domain.DestroyOutcome{Path: abs, Passes: d.passes}

	info, err := os.Lstat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return outcome, wcerrors.Join(wcerrors.ErrNotFound, err)
		}
		return outcome, wcerrors.Join(wcerrors.ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return outcome, fmt.Errorf("%w: %s is not a regular file", wcerrors.ErrIO, abs)
	}
	outcome.Size = info.Size()

	if err := ctxutil.Before(ctx, "overwrite"); err != nil {
		return outcome, err
	}

	log := d.logger.With().Str("path", abs).Int64("size", outcome.Size).Logger()
	log.Debug().Int("passes", d.passes).Msg("overwrite started")

	f, err := os.OpenFile(abs, os.O_WRONLY, 0) //#nosec G304 -- path is the caller-selected erase target
	if err != nil {
		log.Error().Err(err).Msg("cannot open for overwrite, file left in place")
		return outcome, wcerrors.Join(wcerrors.ErrIO, fmt.Errorf("opening for overwrite: %w", err))
	}
	outcome.Touched = true

	if err := d.overwrite(f, outcome.Size); err != nil {
		log.Error().Err(err).Msg("overwrite failed, file left in place")
		return outcome, wcerrors.Join(wcerrors.ErrIO, err)
	}
	outcome.Overwritten = true

	if err := d.remove(abs); err != nil {
		log.Warn().Err(err).Msg("content overwritten but removal failed")
		return outcome, wcerrors.Join(wcerrors.ErrPartialDestroy, err)
	}
	outcome.Removed = true

	log.Debug().Msg("file destroyed")
	return outcome, nil
}

// overwrite runs every pass over f and closes it.
func (d *Destroyer) overwrite(f *os.File, size int64) error {
	buf := make([]byte, min(size, constants.OverwriteBufferSize))
	for pass := 1; pass <= d.passes; pass++ {
		if err := d.writePass(f, buf, size); err != nil {
			_ = f.Close()
			return fmt.Errorf("pass %d/%d: %w", pass, d.passes, err)
		}
		if d.observer != nil {
			d.observer(f.Name(), pass, d.passes)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing after overwrite: %w", err)
	}
	return nil
}

// writePass fills [0, size) with random bytes and syncs.
func (d *Destroyer) writePass(f *os.File, buf []byte, size int64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking: %w", err)
	}

	for remaining := size; remaining > 0; {
		chunk := buf[:min(remaining, int64(len(buf)))]
		if _, err := io.ReadFull(d.random, chunk); err != nil {
			return fmt.Errorf("reading random bytes: %w", err)
		}
		n, err := f.Write(chunk)
		if err != nil {
			return fmt.Errorf("writing: %w", err)
		}
		remaining -= int64(n)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing: %w", err)
	}
	return nil
}
