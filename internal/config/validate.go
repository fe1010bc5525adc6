package config

import (
	"slices"
	"strings"
	"unicode"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/errors"
)

// allowedKeyBits lists the RSA modulus sizes accepted for new keys.
//
//nolint:gochecknoglobals // Immutable lookup table
var allowedKeyBits = []int{2048, 3072, 4096}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - keys.bits must be 2048, 3072, or 4096
//   - trail.lock_timeout must be positive
//   - erase.passes must be between 1 and 35
//   - erase.concurrency must be between 1 and 64
//   - erase.standards must not be empty
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateKeysConfig(&cfg.Keys); err != nil {
		return err
	}

	if err := validateTrailConfig(&cfg.Trail); err != nil {
		return err
	}

	return validateEraseConfig(&cfg.Erase)
}

func validateKeysConfig(cfg *KeysConfig) error {
	if !slices.Contains(allowedKeyBits, cfg.Bits) {
		return errors.Wrapf(errors.ErrConfigInvalidKeys,
			"keys.bits must be one of %v, got %d", allowedKeyBits, cfg.Bits)
	}
	return nil
}

func validateTrailConfig(cfg *TrailConfig) error {
	if cfg.LockTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidTrail,
			"trail.lock_timeout must be positive, got %s", cfg.LockTimeout)
	}
	return nil
}

func validateEraseConfig(cfg *EraseConfig) error {
	if cfg.Passes < constants.MinPasses || cfg.Passes > constants.MaxPasses {
		return errors.Wrapf(errors.ErrConfigInvalidErase,
			"erase.passes must be between %d and %d, got %d",
			constants.MinPasses, constants.MaxPasses, cfg.Passes)
	}

	if cfg.Concurrency < 1 || cfg.Concurrency > constants.MaxConcurrency {
		return errors.Wrapf(errors.ErrConfigInvalidErase,
			"erase.concurrency must be between 1 and %d, got %d",
			constants.MaxConcurrency, cfg.Concurrency)
	}

	if strings.TrimSpace(cfg.Standards) == "" {
		return errors.Wrap(errors.ErrConfigInvalidErase,
			"erase.standards must not be empty")
	}

	if strings.ContainsFunc(cfg.Standards, unicode.IsControl) {
		return errors.Wrap(errors.ErrConfigInvalidErase,
			"erase.standards must not contain control characters")
	}

	return nil
}
