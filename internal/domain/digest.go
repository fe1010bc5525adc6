package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// Digest is a lowercase hex-encoded SHA-256 value.
type Digest string

// emptyDigest is SHA-256 of the empty byte sequence.
const emptyDigest Digest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// EmptyDigest returns SHA-256 of the empty byte sequence. Sanitized records
// use it as digest_after; it is a constant, never a measurement.
func EmptyDigest() Digest {
	return emptyDigest
}

// DigestFromSum encodes a raw SHA-256 sum.
func DigestFromSum(sum [sha256.Size]byte) Digest {
	return Digest(hex.EncodeToString(sum[:]))
}

// String returns the hex encoding.
func (d Digest) String() string {
	return string(d)
}

// IsZero reports whether d is unset.
func (d Digest) IsZero() bool {
	return d == ""
}

// Validate checks that d is 64 lowercase hex characters.
func (d Digest) Validate() error {
	if len(d) != hex.EncodedLen(sha256.Size) {
		return fmt.Errorf("%w: digest must be %d hex characters, got %d", wcerrors.ErrFormat, hex.EncodedLen(sha256.Size), len(d))
	}
	for _, c := range d {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: digest contains non-hex character %q", wcerrors.ErrFormat, c)
		}
	}
	return nil
}

// ParseDigest validates s and returns it as a Digest.
func ParseDigest(s string) (Digest, error) {
	d := Digest(s)
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}
