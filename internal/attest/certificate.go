package attest

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/crypto"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// NewCertificate bundles a signed record with the signing public key.
func NewCertificate(signed domain.SignedRecord, pub *rsa.PublicKey) (domain.Certificate, error) {
	pemData, err := crypto.EncodePublicKeyPEM(pub)
	if err != nil {
		return domain.Certificate{}, err
	}
	fp, err := crypto.Fingerprint(pub)
	if err != nil {
		return domain.Certificate{}, err
	}
	return domain.Certificate{
		Version:        constants.CertificateVersion,
		Record:         signed.Record,
		Signature:      append(domain.Signature(nil), signed.Signature...),
		Algorithm:      constants.SignatureAlgorithm,
		PublicKeyPEM:   string(pemData),
		KeyFingerprint: fp,
	}, nil
}

// MarshalCertificate encodes a certificate as indented JSON.
func MarshalCertificate(cert domain.Certificate) ([]byte, error) {
	data, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding certificate: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseCertificate decodes a certificate. Unknown fields, unknown versions
// and unsupported algorithms fail with wcerrors.ErrFormat.
func ParseCertificate(data []byte) (domain.Certificate, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cert domain.Certificate
	if err := dec.Decode(&cert); err != nil {
		return domain.Certificate{}, fmt.Errorf("%w: decoding certificate: %w", wcerrors.ErrFormat, err)
	}
	if cert.Version != constants.CertificateVersion {
		return domain.Certificate{}, fmt.Errorf("%w: unsupported certificate version %d", wcerrors.ErrFormat, cert.Version)
	}
	if cert.Algorithm != constants.SignatureAlgorithm {
		return domain.Certificate{}, fmt.Errorf("%w: unsupported algorithm %q", wcerrors.ErrFormat, cert.Algorithm)
	}
	return cert, nil
}

// VerifyCertificate checks a certificate offline. When trusted is nil the
// embedded public key is used; callers that pin a key pass it as trusted,
// and a certificate whose embedded fingerprint differs from it fails.
func VerifyCertificate(cert domain.Certificate, trusted *rsa.PublicKey) (bool, error) {
	pub := trusted
	if pub == nil {
		embedded, err := crypto.DecodePublicKeyPEM([]byte(cert.PublicKeyPEM))
		if err != nil {
			return false, err
		}
		pub = embedded
	}

	fp, err := crypto.Fingerprint(pub)
	if err != nil {
		return false, fmt.Errorf("%w: %w", wcerrors.ErrFormat, err)
	}
	if cert.KeyFingerprint != "" && cert.KeyFingerprint != fp {
		return false, nil
	}

	return Verify(cert.Record, cert.Signature, pub)
}
