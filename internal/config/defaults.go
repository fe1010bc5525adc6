package config

import (
	"github.com/mrz1836/wipecert/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Keys: KeysConfig{
			// Path: empty resolves under the global wipecert home.
			Path: "",
			Bits: constants.DefaultRSAKeyBits,
		},
		Trail: TrailConfig{
			Dir:         "",
			LockTimeout: constants.DefaultLockTimeout,
		},
		Erase: EraseConfig{
			Passes:         constants.DefaultPasses,
			Concurrency:    constants.DefaultConcurrency,
			Standards:      constants.StandardNIST80088,
			CertificateDir: "",
		},
		Identity: IdentityConfig{
			// Identity has no default: an attestation without a named operator is rejected.
			OperatorID: "",
			DeviceID:   "",
		},
	}
}
