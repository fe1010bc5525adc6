package keystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/flock"
)

// Backend persists the PEM-encoded private key.
//
// LoadOrCreate returns the stored key material. When none exists it calls
// generate exactly once and persists the result; implementations must
// guarantee that two concurrent callers never persist two different keys.
type Backend interface {
	LoadOrCreate(ctx context.Context, generate func() ([]byte, error)) ([]byte, error)
}

// FileBackend stores the key in a single file.
// Creation is serialized across processes by an exclusive lock on
// "<path>.lock"; the key is written to a temp file and renamed into place
// so a crash never leaves a truncated key behind.
type FileBackend struct {
	path        string
	lockTimeout time.Duration
}

// NewFileBackend creates a FileBackend for the key file at path.
func NewFileBackend(path string, lockTimeout time.Duration) *FileBackend {
	if lockTimeout <= 0 {
		lockTimeout = constants.DefaultLockTimeout
	}
	return &FileBackend{path: path, lockTimeout: lockTimeout}
}

// Path returns the key file path.
func (b *FileBackend) Path() string {
	return b.path
}

// LoadOrCreate implements Backend.
func (b *FileBackend) LoadOrCreate(ctx context.Context, generate func() ([]byte, error)) ([]byte, error) {
	data, err := b.read()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(b.path), constants.DirPerm); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}

	lock := flock.New(b.path + constants.LockFileSuffix)
	if err := lock.Acquire(ctx, b.lockTimeout); err != nil {
		return nil, fmt.Errorf("locking key file: %w", err)
	}
	defer func() { _ = lock.Release() }()

	// Another process may have created the key while we waited.
	data, err = b.read()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	data, err = generate()
	if err != nil {
		return nil, err
	}
	if err := writeKeyFile(b.path, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (b *FileBackend) read() ([]byte, error) {
	data, err := os.ReadFile(b.path) //#nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return data, nil
}

// syncDir flushes a directory so a rename inside it survives a crash.
//
//nolint:gochecknoglobals // Replaced in tests
var syncDir = syncDirectory

func syncDirectory(dir string) error {
	// Directory handles cannot be synced on Windows.
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir) //#nosec G304 -- key directory from configuration
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()
	return d.Sync()
}

// writeKeyFile writes data to path via a synced temp file, rename and
// directory sync. The caller must hold the key lock.
func writeKeyFile(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, constants.KeyFilePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("creating temp key file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing key file: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("syncing key file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing key file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("installing key file: %w", err)
	}
	if err := syncDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("syncing key directory: %w", err)
	}
	return nil
}

// MemoryBackend keeps key material in memory. Intended for tests.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryBackend creates a MemoryBackend, optionally seeded with existing
// key material.
func NewMemoryBackend(seed []byte) *MemoryBackend {
	return &MemoryBackend{data: append([]byte(nil), seed...)}
}

// LoadOrCreate implements Backend.
func (b *MemoryBackend) LoadOrCreate(_ context.Context, generate func() ([]byte, error)) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.data) == 0 {
		data, err := generate()
		if err != nil {
			return nil, err
		}
		b.data = append([]byte(nil), data...)
	}
	return append([]byte(nil), b.data...), nil
}
