// Package erasure runs the erase-and-attest pipeline.
//
// For each file the Service validates the operator identity, measures the
// content digest, destroys the file, then builds the attestation record and
// appends its anchor, signs it and appends it to the audit trail in one
// trail session.
// Verification and trail export are separate read-only operations.
package erasure

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/wipecert/internal/attest"
	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
	"github.com/mrz1836/wipecert/internal/fingerprint"
	"github.com/mrz1836/wipecert/internal/trail"
)

// KeyStore supplies the signing key.
type KeyStore interface {
	GetOrCreateKey(ctx context.Context) (*rsa.PrivateKey, error)
	PublicKey(ctx context.Context) (*rsa.PublicKey, error)
}

// Destroyer overwrites and removes one file.
type Destroyer interface {
	Destroy(ctx context.Context, path string) (domain.DestroyOutcome, error)
}

// Config wires a Service.
type Config struct {
	Keys        KeyStore
	Trail       trail.Trail
	Destroyer   Destroyer
	Builder     *attest.Builder
	Concurrency int
	Logger      zerolog.Logger
}

// Service is the erase-and-attest pipeline. It is safe for concurrent use.
type Service struct {
	keys        KeyStore
	trail       trail.Trail
	destroyer   Destroyer
	builder     *attest.Builder
	concurrency int
	logger      zerolog.Logger
}

// New creates a Service. Keys, Trail and Destroyer are required.
func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Keys == nil:
		return nil, fmt.Errorf("erasure service: key store %w", wcerrors.ErrEmptyValue)
	case cfg.Trail == nil:
		return nil, fmt.Errorf("erasure service: trail %w", wcerrors.ErrEmptyValue)
	case cfg.Destroyer == nil:
		return nil, fmt.Errorf("erasure service: destroyer %w", wcerrors.ErrEmptyValue)
	}

	builder := cfg.Builder
	if builder == nil {
		builder = attest.NewBuilder()
	}
	if err := builder.Validate(); err != nil {
		return nil, fmt.Errorf("erasure service: %w", err)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrency
	}

	return &Service{
		keys:        cfg.Keys,
		trail:       cfg.Trail,
		destroyer:   cfg.Destroyer,
		builder:     builder,
		concurrency: min(concurrency, constants.MaxConcurrency),
		logger:      cfg.Logger,
	}, nil
}

// EraseRequest describes one file to erase.
type EraseRequest struct {
	// File, when set, is read for the pre-erasure digest instead of
	// opening Path. It must hold the same content as Path.
	File io.Reader

	// Path is the file to destroy.
	Path string

	// OperatorID and DeviceID identify who erased the file and where.
	OperatorID string
	DeviceID   string

	// FileName is recorded in the attestation. Defaults to the base name
	// of Path.
	FileName string
}

// Result is the signed attestation of one erasure.
type Result struct {
	Record    domain.AttestationRecord `json:"record"`
	Signature domain.Signature         `json:"signature"`
}

// Signed returns the result as a trail record.
func (r *Result) Signed() domain.SignedRecord {
	return domain.SignedRecord{Record: r.Record, Signature: r.Signature}
}

// Erase destroys the file at req.Path and returns its signed attestation.
//
// Nothing is destroyed or appended when the identity or file name is
// invalid (ErrValidation), the path is missing (ErrNotFound), the path is not a
// regular file (ErrIO), the signing key is unavailable (ErrStorage) or the
// trail cannot accept appends (ErrTrailCorrupted, ErrIO).
//
// When destruction is incomplete the record is still signed and appended
// with a PARTIAL or FAILED status, and Erase returns both the result and
// the destroyer's ErrPartialDestroy or ErrIO. When the signed record cannot
// be appended the result is still returned alongside the error, so the
// caller can keep the certificate.
func (s *Service) Erase(ctx context.Context, req EraseRequest) (*Result, error) {
	operatorID, deviceID, err := attest.ValidateIdentity(req.OperatorID, req.DeviceID)
	if err != nil {
		return nil, err
	}
	fileName, err := attest.FileName(req.FileName, req.Path)
	if err != nil {
		return nil, err
	}

	info, err := os.Lstat(req.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, wcerrors.Join(wcerrors.ErrNotFound, err)
		}
		return nil, wcerrors.Join(wcerrors.ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", wcerrors.ErrIO, req.Path)
	}

	var digest domain.Digest
	if req.File != nil {
		digest, err = fingerprint.Digest(ctx, req.File)
	} else {
		digest, err = fingerprint.DigestFile(ctx, req.Path)
	}
	if err != nil {
		return nil, err
	}

	// Load the key before destroying anything so a storage fault cannot
	// leave an erased file without a signature.
	key, err := s.keys.GetOrCreateKey(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.trail.Ready(ctx); err != nil {
		return nil, fmt.Errorf("audit trail not ready: %w", err)
	}

	outcome, destroyErr := s.destroyer.Destroy(ctx, req.Path)
	if destroyErr != nil && !outcome.Touched {
		return nil, destroyErr
	}

	// The file has been touched; the attestation must be recorded even if
	// the caller gives up now.
	ctx = context.WithoutCancel(ctx)

	record, err := s.builder.BuildRecord(digest, outcome, operatorID, deviceID, fileName)
	if err != nil {
		return nil, err
	}

	log := s.logger.With().
		Str("record_id", record.RecordID).
		Str("file_name", record.FileName).
		Logger()

	var sig domain.Signature
	err = s.trail.Session(ctx, func(a trail.Appender) error {
		if err := a.AppendAnchor(ctx, digest, record.Timestamp); err != nil {
			return fmt.Errorf("appending anchor: %w", err)
		}

		signed, err := attest.Sign(record, key)
		if err != nil {
			log.Error().Err(err).Msg("signing failed, anchor recorded without record")
			return err
		}
		sig = signed

		if err := a.AppendRecord(ctx, record, sig); err != nil {
			return fmt.Errorf("appending record: %w", err)
		}
		return nil
	})
	if err != nil {
		if sig == nil {
			return nil, errors.Join(err, destroyErr)
		}
		log.Error().Err(err).Msg("record signed but not appended to trail")
		return &Result{Record: record, Signature: sig}, errors.Join(err, destroyErr)
	}

	result := &Result{Record: record, Signature: sig}
	if destroyErr != nil {
		log.Warn().Err(destroyErr).Str("status", record.Status.String()).Msg("erasure incomplete")
		return result, destroyErr
	}

	log.Info().
		Str("status", record.Status.String()).
		Int("passes", record.Passes).
		Int64("file_size", record.FileSize).
		Msg("erasure attested")
	return result, nil
}

// VerifyCertificate checks a record and signature against this
// deployment's public key. It does not consult the trail.
func (s *Service) VerifyCertificate(ctx context.Context, record domain.AttestationRecord, signature domain.Signature) (bool, error) {
	pub, err := s.keys.PublicKey(ctx)
	if err != nil {
		return false, err
	}
	return attest.Verify(record, signature, pub)
}

// ListAuditEntries returns the full trail. The result is a copy.
func (s *Service) ListAuditEntries(ctx context.Context) ([]domain.Entry, error) {
	return s.trail.ReadAll(ctx)
}

// Certificate builds a portable certificate for result.
func (s *Service) Certificate(ctx context.Context, result *Result) (domain.Certificate, error) {
	if result == nil {
		return domain.Certificate{}, fmt.Errorf("certificate: result %w", wcerrors.ErrEmptyValue)
	}
	pub, err := s.keys.PublicKey(ctx)
	if err != nil {
		return domain.Certificate{}, err
	}
	return attest.NewCertificate(result.Signed(), pub)
}

// FindRecord returns the trail record with the given id.
func (s *Service) FindRecord(ctx context.Context, recordID string) (*Result, error) {
	records, err := s.trail.Records(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Record.RecordID == recordID {
			return &Result{Record: r.Record, Signature: r.Signature}, nil
		}
	}
	return nil, fmt.Errorf("record %s: %w", recordID, wcerrors.ErrNotFound)
}

// CheckTrail runs the trail integrity check. With verifySignatures every
// record is verified against this deployment's public key.
func (s *Service) CheckTrail(ctx context.Context, verifySignatures bool) (trail.Report, error) {
	var pub *rsa.PublicKey
	if verifySignatures {
		var err error
		pub, err = s.keys.PublicKey(ctx)
		if err != nil {
			return trail.Report{}, err
		}
	}
	return trail.Check(ctx, s.trail, pub)
}
