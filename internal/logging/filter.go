// Package logging keeps signing key material out of wipecert's logs.
package logging

import (
	"io"
	"regexp"

	"github.com/rs/zerolog"
)

// Redacted replaces private key material in log output.
const Redacted = "[REDACTED KEY]"

// keyMaterial matches private key encodings. Armored blocks go first so a
// whole block collapses to one marker.
var keyMaterial = []*regexp.Regexp{ //nolint:gochecknoglobals // Compiled once
	// Armored private key, raw or with JSON-escaped newlines.
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),

	// Armor header whose block was cut off.
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`),

	// Unarmored base64 PKCS#8 body: SEQUENCE, version 0, AlgorithmIdentifier.
	regexp.MustCompile(`MII[A-Za-z0-9+/]{3}IBADAN[A-Za-z0-9+/=]*`),
}

// HasKeyMaterial reports whether s carries private key material.
func HasKeyMaterial(s string) bool {
	for _, re := range keyMaterial {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Redact replaces private key material in s.
func Redact(s string) string {
	for _, re := range keyMaterial {
		s = re.ReplaceAllString(s, Redacted)
	}
	return s
}

// KeyMaterialHook flags events whose message carries private key material.
// A hook cannot rewrite the message; RedactingWriter does that on disk.
type KeyMaterialHook struct{}

// Run implements zerolog.Hook.
func (KeyMaterialHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if HasKeyMaterial(msg) {
		e.Bool("key_material_redacted", true)
	}
}

// RedactingWriter redacts private key material from everything written
// through it.
type RedactingWriter struct {
	w io.Writer
}

// NewRedactingWriter wraps w.
func NewRedactingWriter(w io.Writer) *RedactingWriter {
	return &RedactingWriter{w: w}
}

// Write writes p with key material redacted and reports len(p) on success.
func (rw *RedactingWriter) Write(p []byte) (int, error) {
	out := p
	if s := string(p); HasKeyMaterial(s) {
		out = []byte(Redact(s))
	}
	if _, err := rw.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the wrapped writer when it is an io.Closer.
func (rw *RedactingWriter) Close() error {
	if c, ok := rw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
