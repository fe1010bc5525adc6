package trail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/ctxutil"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
	"github.com/mrz1836/wipecert/internal/flock"
)

// tailScanChunk is how far back repairTail reads per step.
const tailScanChunk = 4096

// FileTrail is a Trail stored in a directory.
//
// Each append is a single write of one complete newline-terminated line to
// an O_APPEND file, followed by fsync, under a process mutex and an
// exclusive lock on trail.lock. Readers take a shared lock and ignore any
// trailing fragment; writers truncate such a fragment before appending.
//
// Record ids already in records.csv are kept in an index that is extended
// with only the bytes appended since it was last brought up to date.
type FileTrail struct {
	dir         string
	lockTimeout time.Duration
	logger      zerolog.Logger

	mu      sync.Mutex
	ids     map[string]struct{}
	indexed int64
}

// Option configures a FileTrail.
type Option func(*FileTrail)

// WithLockTimeout sets how long an append or read waits for the trail lock.
func WithLockTimeout(d time.Duration) Option {
	return func(t *FileTrail) {
		if d > 0 {
			t.lockTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *FileTrail) {
		t.logger = logger
	}
}

// NewFileTrail opens (creating if needed) the trail in dir.
func NewFileTrail(dir string, opts ...Option) (*FileTrail, error) {
	if dir == "" {
		return nil, fmt.Errorf("trail directory %w", wcerrors.ErrEmptyValue)
	}
	if err := os.MkdirAll(dir, constants.DirPerm); err != nil {
		return nil, wcerrors.Join(wcerrors.ErrIO, fmt.Errorf("creating trail directory: %w", err))
	}

	t := &FileTrail{
		dir:         dir,
		lockTimeout: constants.DefaultLockTimeout,
		logger:      zerolog.Nop(),
		ids:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Dir returns the trail directory.
func (t *FileTrail) Dir() string {
	return t.dir
}

// AnchorPath returns the path of anchors.log.
func (t *FileTrail) AnchorPath() string {
	return filepath.Join(t.dir, constants.AnchorLogFileName)
}

// RecordPath returns the path of records.csv.
func (t *FileTrail) RecordPath() string {
	return filepath.Join(t.dir, constants.RecordLogFileName)
}

func (t *FileTrail) lockPath() string {
	return filepath.Join(t.dir, constants.TrailLockFileName)
}

// AppendAnchor implements Trail.
func (t *FileTrail) AppendAnchor(ctx context.Context, digest domain.Digest, ts time.Time) error {
	return t.Session(ctx, func(a Appender) error {
		return a.AppendAnchor(ctx, digest, ts)
	})
}

// AppendRecord implements Trail.
func (t *FileTrail) AppendRecord(ctx context.Context, record domain.AttestationRecord, signature domain.Signature) error {
	return t.Session(ctx, func(a Appender) error {
		return a.AppendRecord(ctx, record, signature)
	})
}

// Session implements Trail. The exclusive lock on trail.lock is held for
// the whole of fn, so other processes cannot append in between either.
func (t *FileTrail) Session(ctx context.Context, fn func(Appender) error) error {
	unlock, err := t.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return fn(fileAppender{t: t})
}

// Ready implements Trail.
func (t *FileTrail) Ready(ctx context.Context) error {
	unlock, err := t.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := os.Open(t.RecordPath()) //#nosec G304 -- path is constructed internally
	if errors.Is(err, fs.ErrNotExist) {
		t.resetIndex()
		return nil
	}
	if err != nil {
		return wcerrors.Join(wcerrors.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return wcerrors.Join(wcerrors.ErrIO, err)
	}
	return t.refreshIndex(f, info.Size())
}

// lock takes the process mutex and the exclusive trail lock. The returned
// func releases both.
func (t *FileTrail) lock(ctx context.Context) (func(), error) {
	if err := ctxutil.Before(ctx, "trail append"); err != nil {
		return nil, err
	}

	t.mu.Lock()
	lock := flock.New(t.lockPath())
	if err := lock.Acquire(ctx, t.lockTimeout); err != nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("locking trail: %w", err)
	}

	return func() {
		_ = lock.Release()
		t.mu.Unlock()
	}, nil
}

// fileAppender appends while a session holds the trail lock.
type fileAppender struct {
	t *FileTrail
}

func (a fileAppender) AppendAnchor(ctx context.Context, digest domain.Digest, ts time.Time) error {
	if err := digest.Validate(); err != nil {
		return fmt.Errorf("appending anchor: %w", err)
	}
	line := encodeAnchor(domain.Anchor{Timestamp: ts, Digest: digest})

	return a.t.write(ctx, a.t.AnchorPath(), func(*os.File, int64) ([]byte, error) {
		return line, nil
	})
}

func (a fileAppender) AppendRecord(ctx context.Context, record domain.AttestationRecord, signature domain.Signature) error {
	t := a.t
	if record.RecordID == "" {
		return fmt.Errorf("appending record: record id %w", wcerrors.ErrEmptyValue)
	}
	row, err := encodeRecordRow(record, signature)
	if err != nil {
		return err
	}

	var end int64
	err = t.write(ctx, t.RecordPath(), func(f *os.File, size int64) ([]byte, error) {
		if size == 0 {
			t.resetIndex()
			header, err := encodeCSV(RecordColumns)
			if err != nil {
				return nil, err
			}
			line := append(header, row...)
			end = int64(len(line))
			return line, nil
		}

		if err := t.refreshIndex(f, size); err != nil {
			return nil, err
		}
		if _, ok := t.ids[record.RecordID]; ok {
			return nil, fmt.Errorf("%w: %s", wcerrors.ErrDuplicateRecord, record.RecordID)
		}
		end = size + int64(len(row))
		return row, nil
	})
	if err != nil {
		return err
	}
	t.ids[record.RecordID] = struct{}{}
	t.indexed = end

	t.logger.Debug().
		Str("record_id", record.RecordID).
		Str("status", record.Status.String()).
		Msg("record appended to trail")
	return nil
}

// write appends the line produced by build to the log at path. The caller
// holds the trail lock. build sees the open file and its size after tail
// repair.
func (t *FileTrail) write(ctx context.Context, path string, build func(f *os.File, size int64) ([]byte, error)) error {
	if err := ctxutil.Before(ctx, "trail append"); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, constants.FilePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return wcerrors.Join(wcerrors.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	size, err := t.repairTail(f)
	if err != nil {
		return wcerrors.Join(wcerrors.ErrIO, err)
	}

	line, err := build(f, size)
	if err != nil {
		return err
	}

	if _, err := f.Write(line); err != nil {
		return wcerrors.Join(wcerrors.ErrIO, fmt.Errorf("writing %s: %w", filepath.Base(path), err))
	}
	if err := f.Sync(); err != nil {
		return wcerrors.Join(wcerrors.ErrIO, fmt.Errorf("syncing %s: %w", filepath.Base(path), err))
	}
	return nil
}

// refreshIndex adds the record ids of complete rows in f between the
// indexed offset and size. The caller holds the trail lock.
func (t *FileTrail) refreshIndex(f *os.File, size int64) error {
	if size < t.indexed {
		t.resetIndex()
	}
	if size == t.indexed {
		return nil
	}

	data, err := readRange(f, t.indexed, size)
	if err != nil {
		return err
	}
	data = completeLines(data)

	records, err := decodeRows(data, t.indexed == 0)
	if err != nil {
		return err
	}
	for _, r := range records {
		t.ids[r.Record.RecordID] = struct{}{}
	}
	t.indexed += int64(len(data))
	return nil
}

func (t *FileTrail) resetIndex() {
	clear(t.ids)
	t.indexed = 0
}

// repairTail truncates an unterminated trailing fragment left by a crashed
// append and returns the resulting size.
func (t *FileTrail) repairTail(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return 0, fmt.Errorf("reading tail: %w", err)
	}
	if last[0] == '\n' {
		return size, nil
	}

	keep := int64(0)
	buf := make([]byte, tailScanChunk)
	for end := size; end > 0; {
		start := max(0, end-tailScanChunk)
		chunk := buf[:end-start]
		if _, err := f.ReadAt(chunk, start); err != nil {
			return 0, fmt.Errorf("reading tail: %w", err)
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			keep = start + int64(i) + 1
			break
		}
		end = start
	}

	if err := f.Truncate(keep); err != nil {
		return 0, fmt.Errorf("truncating torn entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("syncing after truncate: %w", err)
	}

	t.logger.Warn().
		Str("file", filepath.Base(f.Name())).
		Int64("dropped_bytes", size-keep).
		Msg("removed incomplete trailing entry from trail")
	return keep, nil
}

// Anchors implements Reader.
func (t *FileTrail) Anchors(ctx context.Context) ([]domain.Anchor, error) {
	data, err := t.readLogs(ctx, t.AnchorPath())
	if err != nil {
		return nil, err
	}
	return decodeAnchors(data[0])
}

// Records implements Reader.
func (t *FileTrail) Records(ctx context.Context) ([]domain.SignedRecord, error) {
	data, err := t.readLogs(ctx, t.RecordPath())
	if err != nil {
		return nil, err
	}
	return decodeRecords(data[0])
}

// ReadAll implements Reader. Both logs are read under one shared lock so
// the result is a consistent snapshot.
func (t *FileTrail) ReadAll(ctx context.Context) ([]domain.Entry, error) {
	data, err := t.readLogs(ctx, t.AnchorPath(), t.RecordPath())
	if err != nil {
		return nil, err
	}
	anchors, err := decodeAnchors(data[0])
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(data[1])
	if err != nil {
		return nil, err
	}
	return mergeEntries(anchors, records), nil
}

// readLogs returns the complete-line content of each path under a shared
// trail lock. Missing files read as empty.
func (t *FileTrail) readLogs(ctx context.Context, paths ...string) ([][]byte, error) {
	lock := flock.NewShared(t.lockPath())
	if err := lock.Acquire(ctx, t.lockTimeout); err != nil {
		return nil, fmt.Errorf("locking trail: %w", err)
	}
	defer func() { _ = lock.Release() }()

	out := make([][]byte, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p) //#nosec G304 -- path is constructed internally
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, wcerrors.Join(wcerrors.ErrIO, err)
		}
		out[i] = completeLines(data)
	}
	return out, nil
}

// readRange reads bytes [from, to) of f.
func readRange(f *os.File, from, to int64) ([]byte, error) {
	data := make([]byte, to-from)
	if _, err := f.ReadAt(data, from); err != nil && !errors.Is(err, io.EOF) {
		return nil, wcerrors.Join(wcerrors.ErrIO, fmt.Errorf("reading %s: %w", filepath.Base(f.Name()), err))
	}
	return data, nil
}

var _ Trail = (*FileTrail)(nil)
