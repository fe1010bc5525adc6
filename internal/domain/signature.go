package domain

import (
	"encoding/base64"
	"fmt"

	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// Signature is a detached signature over a record's canonical form.
// Its text form is standard base64.
type Signature []byte

// String returns the base64 encoding.
func (s Signature) String() string {
	return base64.StdEncoding.EncodeToString(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	sig, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = sig
	return nil
}

// ParseSignature decodes a base64 signature.
func ParseSignature(s string) (Signature, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty signature", wcerrors.ErrFormat)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding signature: %w", wcerrors.ErrFormat, err)
	}
	return Signature(b), nil
}
