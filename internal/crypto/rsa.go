package crypto

import (
	"context"
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"

	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// pssOptions fixes the salt length so signer and verifier agree.
//
//nolint:gochecknoglobals // Immutable signing parameters
var pssOptions = &rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthEqualsHash,
	Hash:       stdcrypto.SHA256,
}

// SignPSS signs SHA-256(message) with RSA-PSS. Entropy comes from random,
// or crypto/rand when random is nil.
func SignPSS(random io.Reader, key *rsa.PrivateKey, message []byte) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no private key", wcerrors.ErrSigning)
	}
	if random == nil {
		random = rand.Reader
	}
	hashed := sha256.Sum256(message)
	sig, err := rsa.SignPSS(random, key, stdcrypto.SHA256, hashed[:], pssOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", wcerrors.ErrSigning, err)
	}
	return sig, nil
}

// VerifyPSS checks an RSA-PSS signature over SHA-256(message).
// Returns an error wrapping wcerrors.ErrVerificationFailed when the signature
// does not match.
func VerifyPSS(pub *rsa.PublicKey, message, signature []byte) error {
	if pub == nil {
		return fmt.Errorf("%w: no public key", wcerrors.ErrFormat)
	}
	hashed := sha256.Sum256(message)
	if err := rsa.VerifyPSS(pub, stdcrypto.SHA256, hashed[:], signature, pssOptions); err != nil {
		return fmt.Errorf("%w: %w", wcerrors.ErrVerificationFailed, err)
	}
	return nil
}

// RSASigner implements Signer with an RSA private key.
type RSASigner struct {
	key *rsa.PrivateKey
}

// NewRSASigner creates a Signer for key.
func NewRSASigner(key *rsa.PrivateKey) (*RSASigner, error) {
	if key == nil {
		return nil, wcerrors.ErrKeyNotLoaded
	}
	return &RSASigner{key: key}, nil
}

// Sign signs the message using RSA-PSS.
func (s *RSASigner) Sign(_ context.Context, message []byte) ([]byte, error) {
	return SignPSS(nil, s.key, message)
}

// Verify checks the signature against the signer's public key.
func (s *RSASigner) Verify(_ context.Context, message, signature []byte) error {
	return VerifyPSS(&s.key.PublicKey, message, signature)
}

// Public returns the signer's public key.
func (s *RSASigner) Public() *rsa.PublicKey {
	return &s.key.PublicKey
}

// RSAVerifier implements Verifier with only a public key.
type RSAVerifier struct {
	pub *rsa.PublicKey
}

// NewRSAVerifier creates a Verifier for pub.
func NewRSAVerifier(pub *rsa.PublicKey) *RSAVerifier {
	return &RSAVerifier{pub: pub}
}

// Verify checks the signature using RSA-PSS.
func (v *RSAVerifier) Verify(_ context.Context, message, signature []byte) error {
	return VerifyPSS(v.pub, message, signature)
}
