// Package errors provides centralized error handling for wipecert.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Erasure-attestation taxonomy.
// Every failure in the core wraps exactly one of these so callers can branch with errors.Is().
var (
	// ErrNotFound indicates that the target file of an erasure does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrIO indicates a read, write, or flush failure on a target file or log.
	ErrIO = errors.New("i/o failure")

	// ErrPartialDestroy indicates that file content was overwritten but the
	// directory entry could not be removed. The name and metadata remain.
	ErrPartialDestroy = errors.New("content overwritten but file not removed")

	// ErrStorage indicates that key material is unreadable, unwritable, or corrupt.
	ErrStorage = errors.New("key storage failure")

	// ErrSigning indicates a key-material fault while producing a signature.
	ErrSigning = errors.New("signing failed")

	// ErrValidation indicates that required identity fields are missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrFormat indicates that a record or signature cannot be parsed into the
	// expected structural shape.
	ErrFormat = errors.New("malformed record or signature")

	// ErrDuplicateRecord indicates that two records share the same record id.
	// This is an integrity violation and is never merged silently.
	ErrDuplicateRecord = errors.New("duplicate record id")

	// ErrTrailCorrupted indicates that an audit log cannot be parsed.
	ErrTrailCorrupted = errors.New("audit trail corrupted")
)

// Infrastructure and CLI errors.
var (
	// ErrLockTimeout indicates a file lock could not be acquired within the timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrKeyNotLoaded indicates that a signing operation was attempted before the key was loaded.
	ErrKeyNotLoaded = errors.New("signing key not loaded")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidKeys indicates an invalid keys configuration value.
	ErrConfigInvalidKeys = errors.New("invalid keys configuration")

	// ErrConfigInvalidTrail indicates an invalid trail configuration value.
	ErrConfigInvalidTrail = errors.New("invalid trail configuration")

	// ErrConfigInvalidErase indicates an invalid erase configuration value.
	ErrConfigInvalidErase = errors.New("invalid erase configuration")

	// ErrConfigNotFound indicates that the configuration file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigExists indicates that a configuration file already exists and would be overwritten.
	ErrConfigExists = errors.New("config file already exists")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNonInteractiveMode indicates that an operation requiring confirmation
	// was attempted in non-interactive mode without the force flag.
	ErrNonInteractiveMode = errors.New("use --force in non-interactive mode")

	// ErrOperationCanceled indicates the user canceled an operation.
	ErrOperationCanceled = errors.New("operation canceled by user")

	// ErrJSONErrorOutput indicates that an error has already been output as JSON.
	// This ensures a non-zero exit code while preventing duplicate error messages.
	// Commands should silence cobra's error printing when this is returned.
	ErrJSONErrorOutput = errors.New("error output as JSON")

	// ErrVerificationFailed indicates that a certificate signature did not verify.
	// It is only used by the CLI to produce a non-zero exit code; the core reports
	// verification outcomes as booleans.
	ErrVerificationFailed = errors.New("certificate verification failed")

	// ErrIntegrityViolation indicates that an audit trail integrity check found problems.
	ErrIntegrityViolation = errors.New("audit trail integrity violation")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
