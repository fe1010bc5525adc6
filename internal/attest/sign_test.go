package attest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/wipecert/internal/crypto"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

func TestSignVerify(t *testing.T) {
	key, _ := testKeys(t)
	r := sampleRecord()

	sig, err := Sign(r, key)
	require.NoError(t, err)

	ok, err := Verify(r, sig, &key.PublicKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSign_Randomized(t *testing.T) {
	key, _ := testKeys(t)
	r := sampleRecord()

	sig1, err := Sign(r, key)
	require.NoError(t, err)
	sig2, err := Sign(r, key)
	require.NoError(t, err)

	assert.NotEqual(t, sig1, sig2)
	for _, sig := range []domain.Signature{sig1, sig2} {
		ok, err := Verify(r, sig, &key.PublicKey)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestSign_NilKey(t *testing.T) {
	_, err := Sign(sampleRecord(), nil)
	require.ErrorIs(t, err, wcerrors.ErrSigning)

	_, err = SignWith(context.Background(), nil, sampleRecord())
	require.ErrorIs(t, err, wcerrors.ErrSigning)
}

func TestVerify_EveryCanonicalByteMutation(t *testing.T) {
	key, _ := testKeys(t)
	r := sampleRecord()
	sig, err := Sign(r, key)
	require.NoError(t, err)

	canonical := Canonical(r)
	for i := range canonical {
		mutated := append([]byte(nil), canonical...)
		mutated[i] ^= 0x01
		err := crypto.VerifyPSS(&key.PublicKey, mutated, sig)
		require.ErrorIs(t, err, wcerrors.ErrVerificationFailed, "mutation at byte %d verified", i)
	}
}

func TestVerify_MutatedRecord(t *testing.T) {
	key, _ := testKeys(t)
	r := sampleRecord()
	sig, err := Sign(r, key)
	require.NoError(t, err)

	mutations := map[string]func(*domain.AttestationRecord){
		"record_id":      func(r *domain.AttestationRecord) { r.RecordID = "SWC-20260105-1a2b3c4e" },
		"timestamp":      func(r *domain.AttestationRecord) { r.Timestamp = r.Timestamp.Add(1) },
		"operator_id":    func(r *domain.AttestationRecord) { r.OperatorID = "gov-admiN" },
		"device_id":      func(r *domain.AttestationRecord) { r.DeviceID = "AA:BB:CD" },
		"file_name":      func(r *domain.AttestationRecord) { r.FileName = "report.txu" },
		"file_size":      func(r *domain.AttestationRecord) { r.FileSize = 9 },
		"passes":         func(r *domain.AttestationRecord) { r.Passes = 2 },
		"method":         func(r *domain.AttestationRecord) { r.Method = "NIST CLEAS" },
		"digest_before":  func(r *domain.AttestationRecord) { r.DigestBefore = domain.EmptyDigest() },
		"digest_after":   func(r *domain.AttestationRecord) { r.DigestAfter = "" },
		"standards_refs": func(r *domain.AttestationRecord) { r.StandardsRefs = "NIST SP 800-88 Rev. 2" },
		"tool_version":   func(r *domain.AttestationRecord) { r.ToolVersion = "wipecert v1.1" },
		"status":         func(r *domain.AttestationRecord) { r.Status = domain.StatusPartial },
	}

	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			mutated := r
			mutate(&mutated)

			ok, err := Verify(mutated, sig, &key.PublicKey)
			require.NoError(t, err, "a tampered record is not a format error")
			assert.False(t, ok)
		})
	}
}

func TestVerify_WrongKeyOrSignature(t *testing.T) {
	key, other := testKeys(t)
	r := sampleRecord()
	sig, err := Sign(r, key)
	require.NoError(t, err)

	ok, err := Verify(r, sig, &other.PublicKey)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Verify(r, domain.Signature{1, 2, 3}, &key.PublicKey)
	require.NoError(t, err, "short signature is well formed but wrong")
	assert.False(t, ok)
}

func TestVerify_FormatErrors(t *testing.T) {
	key, _ := testKeys(t)
	r := sampleRecord()
	sig, err := Sign(r, key)
	require.NoError(t, err)

	_, err = Verify(r, sig, nil)
	require.ErrorIs(t, err, wcerrors.ErrFormat)

	_, err = Verify(r, nil, &key.PublicKey)
	require.ErrorIs(t, err, wcerrors.ErrFormat)

	tests := map[string]func(*domain.AttestationRecord){
		"no record id":          func(r *domain.AttestationRecord) { r.RecordID = "" },
		"bad digest_before":     func(r *domain.AttestationRecord) { r.DigestBefore = "xyz" },
		"bad digest_after":      func(r *domain.AttestationRecord) { r.DigestAfter = "abc" },
		"unknown status":        func(r *domain.AttestationRecord) { r.Status = "WIPED" },
		"missing digest_before": func(r *domain.AttestationRecord) { r.DigestBefore = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			bad := r
			mutate(&bad)
			ok, err := Verify(bad, sig, &key.PublicKey)
			require.ErrorIs(t, err, wcerrors.ErrFormat)
			assert.False(t, ok)
		})
	}
}

func TestSignWithVerifyWith(t *testing.T) {
	ctx := context.Background()
	key, other := testKeys(t)
	signer, err := crypto.NewRSASigner(key)
	require.NoError(t, err)

	r := sampleRecord()
	sig, err := SignWith(ctx, signer, r)
	require.NoError(t, err)

	ok, err := VerifyWith(ctx, signer, r, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyWith(ctx, crypto.NewRSAVerifier(&other.PublicKey), r, sig)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyWith(ctx, nil, r, sig)
	require.ErrorIs(t, err, wcerrors.ErrFormat)
}
