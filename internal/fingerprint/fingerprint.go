// Package fingerprint computes the pre-erasure content digest of a file.
//
// Content is streamed through a fixed-size buffer into SHA-256, so memory
// use does not depend on file size.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// Digest reads r to EOF exactly once and returns the SHA-256 of its bytes.
// Read failures wrap errors.ErrIO.
func Digest(ctx context.Context, r io.Reader) (domain.Digest, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h := sha256.New()
	buf := make([]byte, constants.DigestBufferSize)
	if _, err := io.CopyBuffer(h, onlyReader{r}, buf); err != nil {
		return "", wcerrors.Join(wcerrors.ErrIO, fmt.Errorf("reading content: %w", err))
	}

	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return domain.DigestFromSum(sum), nil
}

// DigestFile opens path and returns the SHA-256 of its content.
// A missing path wraps errors.ErrNotFound; other failures wrap errors.ErrIO.
func DigestFile(ctx context.Context, path string) (domain.Digest, error) {
	f, err := os.Open(path) //#nosec G304 -- path is the caller-selected erase target
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", wcerrors.Join(wcerrors.ErrNotFound, err)
		}
		return "", wcerrors.Join(wcerrors.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	return Digest(ctx, f)
}

// EmptyDigest returns SHA-256 of the empty byte sequence.
func EmptyDigest() domain.Digest {
	return domain.EmptyDigest()
}

// onlyReader hides WriterTo so io.CopyBuffer always uses the bounded buffer.
type onlyReader struct {
	io.Reader
}
