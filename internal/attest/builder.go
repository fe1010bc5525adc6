package attest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/mrz1836/wipecert/internal/clock"
	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// Builder assembles attestation records.
type Builder struct {
	clock       clock.Clock
	newID       func(time.Time) string
	standards   string
	toolVersion string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock sets the clock used for record timestamps.
func WithClock(c clock.Clock) BuilderOption {
	return func(b *Builder) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithStandards sets the standards_refs value.
func WithStandards(refs string) BuilderOption {
	return func(b *Builder) {
		if refs != "" {
			b.standards = refs
		}
	}
}

// WithToolVersion sets the tool_version value.
func WithToolVersion(v string) BuilderOption {
	return func(b *Builder) {
		if v != "" {
			b.toolVersion = v
		}
	}
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(fn func(time.Time) string) BuilderOption {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// NewBuilder creates a Builder with the real clock and default references.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		clock:       clock.RealClock{},
		newID:       NewRecordID,
		standards:   constants.StandardNIST80088,
		toolVersion: constants.ToolVersion,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildRecord assembles the record for one erasure event. It is pure apart
// from reading the clock and generating an id.
//
// fileName defaults to the base name of outcome.Path. Missing identity
// fields, or fields containing control characters, fail with
// wcerrors.ErrValidation.
//
// Only an outcome that was both overwritten and removed yields a SANITIZED
// record with digest_after = SHA-256(""). Any other outcome yields a
// PARTIAL or FAILED record with an empty digest_after.
func (b *Builder) BuildRecord(digestBefore domain.Digest, outcome domain.DestroyOutcome, operatorID, deviceID, fileName string) (domain.AttestationRecord, error) {
	operatorID, deviceID, err := ValidateIdentity(operatorID, deviceID)
	if err != nil {
		return domain.AttestationRecord{}, err
	}

	fileName, err = FileName(fileName, outcome.Path)
	if err != nil {
		return domain.AttestationRecord{}, err
	}

	now := b.clock.Now().UTC()
	status := outcome.Status()

	var digestAfter domain.Digest
	if status == domain.StatusSanitized {
		digestAfter = domain.EmptyDigest()
	}

	return domain.AttestationRecord{
		RecordID:      b.newID(now),
		Timestamp:     now,
		OperatorID:    operatorID,
		DeviceID:      deviceID,
		FileName:      fileName,
		FileSize:      outcome.Size,
		Passes:        outcome.Passes,
		Method:        MethodFor(outcome.Passes),
		DigestBefore:  digestBefore,
		DigestAfter:   digestAfter,
		StandardsRefs: b.standards,
		ToolVersion:   b.toolVersion,
		Status:        status,
	}, nil
}

// Validate checks the fixed values the builder stamps on every record.
func (b *Builder) Validate() error {
	if err := validateField("standards_refs", strings.TrimSpace(b.standards)); err != nil {
		return err
	}
	return validateField("tool_version", strings.TrimSpace(b.toolVersion))
}

// FileName returns the file_name recorded for path: name trimmed, or the
// base name of path when name is blank.
func FileName(name, path string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" && path != "" {
		name = filepath.Base(path)
	}
	if err := validateField("file_name", name); err != nil {
		return "", err
	}
	return name, nil
}

// ValidateIdentity trims and checks the operator and device ids.
func ValidateIdentity(operatorID, deviceID string) (string, string, error) {
	operatorID = strings.TrimSpace(operatorID)
	deviceID = strings.TrimSpace(deviceID)
	if err := validateField("operator_id", operatorID); err != nil {
		return "", "", err
	}
	if err := validateField("device_id", deviceID); err != nil {
		return "", "", err
	}
	return operatorID, deviceID, nil
}

func validateField(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", wcerrors.ErrValidation, name)
	}
	if strings.ContainsFunc(value, unicode.IsControl) {
		return fmt.Errorf("%w: %s contains control characters", wcerrors.ErrValidation, name)
	}
	return nil
}

// NewRecordID generates an id of the form SWC-YYYYMMDD-xxxxxxxx.
func NewRecordID(t time.Time) string {
	return fmt.Sprintf("%s-%s-%s", constants.RecordIDPrefix, t.UTC().Format("20060102"), uuid.New().String()[:8])
}

// MethodFor returns the sanitization method label for a pass count.
func MethodFor(passes int) string {
	switch {
	case passes >= constants.MaxPasses:
		return constants.MethodGutmann
	case passes >= constants.DoDPasses:
		return constants.MethodDoD
	default:
		return constants.MethodNISTClear
	}
}
