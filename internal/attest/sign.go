package attest

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/mrz1836/wipecert/internal/crypto"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// Sign signs the record's canonical form with key.
// A nil or invalid key fails with wcerrors.ErrSigning.
func Sign(record domain.AttestationRecord, key *rsa.PrivateKey) (domain.Signature, error) {
	sig, err := crypto.SignPSS(nil, key, Canonical(record))
	if err != nil {
		return nil, err
	}
	return domain.Signature(sig), nil
}

// SignWith signs the record's canonical form with an arbitrary signer.
func SignWith(ctx context.Context, signer crypto.Signer, record domain.AttestationRecord) (domain.Signature, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: no signer", wcerrors.ErrSigning)
	}
	sig, err := signer.Sign(ctx, Canonical(record))
	if err != nil {
		if errors.Is(err, wcerrors.ErrSigning) {
			return nil, err
		}
		return nil, wcerrors.Join(wcerrors.ErrSigning, err)
	}
	return domain.Signature(sig), nil
}

// Verify reports whether signature is a valid signature of record under pub.
//
// A well-formed signature that does not match returns (false, nil).
// wcerrors.ErrFormat is returned only when the inputs are structurally
// invalid: nil key, empty signature, missing record id, malformed digests
// or an unknown status.
func Verify(record domain.AttestationRecord, signature domain.Signature, pub *rsa.PublicKey) (bool, error) {
	if pub == nil {
		return false, fmt.Errorf("%w: no public key", wcerrors.ErrFormat)
	}
	if err := CheckShape(record, signature); err != nil {
		return false, err
	}
	return matches(crypto.VerifyPSS(pub, Canonical(record), signature))
}

// VerifyWith is Verify against an arbitrary verifier.
func VerifyWith(ctx context.Context, verifier crypto.Verifier, record domain.AttestationRecord, signature domain.Signature) (bool, error) {
	if verifier == nil {
		return false, fmt.Errorf("%w: no verifier", wcerrors.ErrFormat)
	}
	if err := CheckShape(record, signature); err != nil {
		return false, err
	}
	return matches(verifier.Verify(ctx, Canonical(record), signature))
}

// CheckShape validates the structure of a record and signature without
// checking the signature itself.
func CheckShape(record domain.AttestationRecord, signature domain.Signature) error {
	if len(signature) == 0 {
		return fmt.Errorf("%w: empty signature", wcerrors.ErrFormat)
	}
	if record.RecordID == "" {
		return fmt.Errorf("%w: record has no id", wcerrors.ErrFormat)
	}
	if !record.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", wcerrors.ErrFormat, record.Status)
	}
	if err := record.DigestBefore.Validate(); err != nil {
		return fmt.Errorf("digest_before: %w", err)
	}
	if !record.DigestAfter.IsZero() {
		if err := record.DigestAfter.Validate(); err != nil {
			return fmt.Errorf("digest_after: %w", err)
		}
	}
	return nil
}

func matches(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, wcerrors.ErrVerificationFailed):
		return false, nil
	default:
		return false, err
	}
}
