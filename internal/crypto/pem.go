package crypto

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// PEM block types.
const (
	pemTypePrivateKey    = "PRIVATE KEY"
	pemTypeRSAPrivateKey = "RSA PRIVATE KEY"
	pemTypePublicKey     = "PUBLIC KEY"
)

// EncodePrivateKeyPEM encodes key as an unencrypted PKCS#8 PEM block.
func EncodePrivateKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// DecodePrivateKeyPEM parses an RSA private key from PEM. PKCS#8 is tried
// first, then PKCS#1. Malformed input wraps wcerrors.ErrFormat.
func DecodePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", wcerrors.ErrFormat)
	}
	if block.Type != pemTypePrivateKey && block.Type != pemTypeRSAPrivateKey {
		return nil, fmt.Errorf("%w: unexpected PEM block %q", wcerrors.ErrFormat, block.Type)
	}

	generic, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		rsaKey, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return nil, fmt.Errorf("%w: parsing private key: %w", wcerrors.ErrFormat, err)
		}
		generic = rsaKey
	}

	key, ok := generic.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is %T, not RSA", wcerrors.ErrFormat, generic)
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", wcerrors.ErrFormat, err)
	}
	return key, nil
}

// EncodePublicKeyPEM encodes pub as a PKIX PEM block.
func EncodePublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshaling public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: der}), nil
}

// DecodePublicKeyPEM parses a PKIX RSA public key from PEM.
func DecodePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypePublicKey {
		return nil, fmt.Errorf("%w: no PUBLIC KEY block found", wcerrors.ErrFormat)
	}
	generic, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing public key: %w", wcerrors.ErrFormat, err)
	}
	pub, ok := generic.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, not RSA", wcerrors.ErrFormat, generic)
	}
	return pub, nil
}

// Fingerprint returns the hex SHA-256 of the DER-encoded public key.
func Fingerprint(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:]), nil
}
